package recorder

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// FlightRecorder keeps the last Capacity frames produced by the emulation
// driver. Logical frame i lives in slot i mod Capacity; RecordedCount keeps
// growing across wraps.
//
// One goroutine records. Any number of observers may hold the lock at once
// while they read; Record waits until they are all done, so a locked reader
// never sees a slot change underneath it. Readers never queue behind a
// waiting Record, so a goroutine already holding the lock may take it again
// (nested Lock, Read or Recent) as long as every Lock is paired with Unlock.
type FlightRecorder struct {
	mu      sync.Mutex
	drained *sync.Cond // signalled when readers drops to zero
	readers int
	frames  []Frame
	count   atomic.Uint64
}

// New allocates a recorder with room for capacity frames.
func New(capacity int) *FlightRecorder {
	if capacity <= 0 {
		panic(fmt.Sprintf("recorder: capacity must be positive, got %d", capacity))
	}
	r := &FlightRecorder{
		frames: make([]Frame, capacity),
	}
	r.drained = sync.NewCond(&r.mu)
	return r
}

// Capacity returns the number of slots.
func (r *FlightRecorder) Capacity() int {
	return len(r.frames)
}

// RecordedCount returns the total number of frames ever recorded.
func (r *FlightRecorder) RecordedCount() uint64 {
	return r.count.Load()
}

// Filled returns how many slots hold a recorded frame.
func (r *FlightRecorder) Filled() int {
	return int(min(r.count.Load(), uint64(len(r.frames))))
}

// Slot maps a logical frame number to its physical slot.
func (r *FlightRecorder) Slot(logical uint64) int {
	return int(logical % uint64(len(r.frames)))
}

// Frame returns the contents of physical slot i. Callers hold the lock for
// a consistent read. Panics if i is outside [0, Capacity).
func (r *FlightRecorder) Frame(i int) Frame {
	if i < 0 || i >= len(r.frames) {
		panic(fmt.Sprintf("recorder: slot %d out of range [0, %d)", i, len(r.frames)))
	}
	return r.frames[i]
}

// NewestIndex returns the slot of the most recently recorded frame.
// ok is false when nothing has been recorded yet.
func (r *FlightRecorder) NewestIndex() (slot int, ok bool) {
	n := r.count.Load()
	if n == 0 {
		return -1, false
	}
	return r.Slot(n - 1), true
}

// Lock starts a read session. Record blocks until every session has ended.
func (r *FlightRecorder) Lock() {
	r.mu.Lock()
	r.readers++
	r.mu.Unlock()
}

// Unlock ends a read session started by Lock.
func (r *FlightRecorder) Unlock() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.readers == 0 {
		panic("recorder: Unlock without Lock")
	}
	r.readers--
	if r.readers == 0 {
		r.drained.Broadcast()
	}
}

// Read runs fn inside a read session and always releases the lock, even if
// fn panics.
func (r *FlightRecorder) Read(fn func(r *FlightRecorder)) {
	r.Lock()
	defer r.Unlock()
	fn(r)
}

// lockWriter takes mu once no read session is open. New sessions cannot
// start until the caller releases mu.
func (r *FlightRecorder) lockWriter() {
	r.mu.Lock()
	for r.readers > 0 {
		r.drained.Wait()
	}
}

// Record stores f in the next slot. Called once per tick by the driver.
func (r *FlightRecorder) Record(f Frame) {
	r.lockWriter()
	defer r.mu.Unlock()

	n := r.count.Load()
	r.frames[n%uint64(len(r.frames))] = f
	r.count.Store(n + 1)
}

// Reset forgets every recorded frame, e.g. when playback restarts.
func (r *FlightRecorder) Reset() {
	r.lockWriter()
	defer r.mu.Unlock()

	clear(r.frames)
	r.count.Store(0)
}

// Recent returns up to maxCount frames, newest first. A maxCount <= 0
// returns every recorded frame still held.
func (r *FlightRecorder) Recent(maxCount int) []Frame {
	r.Lock()
	defer r.Unlock()

	n := r.count.Load()
	if n == 0 {
		return nil
	}

	count := r.Filled()
	if maxCount > 0 && maxCount < count {
		count = maxCount
	}

	result := make([]Frame, count)
	for i := 0; i < count; i++ {
		result[i] = r.frames[r.Slot(n-1-uint64(i))]
	}
	return result
}
