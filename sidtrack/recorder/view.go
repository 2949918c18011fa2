package recorder

import "fmt"

// View is the presentation-side window on a FlightRecorder. It holds no
// state of its own and must not outlive the recorder.
type View struct {
	r *FlightRecorder
}

// NewView wraps r. Panics on a nil recorder.
func NewView(r *FlightRecorder) View {
	if r == nil {
		panic("recorder: view over nil recorder")
	}
	return View{r: r}
}

func (v View) Lock() {
	v.recorder().Lock()
}

func (v View) Unlock() {
	v.recorder().Unlock()
}

// Read runs fn with the recorder locked and unlocks on every exit path.
func (v View) Read(fn func(v View)) {
	r := v.recorder()
	r.Lock()
	defer r.Unlock()
	fn(v)
}

// Size is the number of slots a view can index.
func (v View) Size() int {
	return v.recorder().Capacity()
}

// Filled is the number of slots holding a recorded frame.
func (v View) Filled() int {
	return v.recorder().Filled()
}

// RecordedCount is the total number of frames recorded.
func (v View) RecordedCount() uint64 {
	return v.recorder().RecordedCount()
}

// NewestIndex is the slot of the newest frame; ok is false before the first frame.
func (v View) NewestIndex() (slot int, ok bool) {
	return v.recorder().NewestIndex()
}

// At returns the frame in slot i and panics if i is outside [0, Size).
func (v View) At(i int) Frame {
	r := v.recorder()
	if i < 0 || i >= r.Capacity() {
		panic(fmt.Sprintf("recorder: view index %d out of range [0, %d)", i, r.Capacity()))
	}
	return r.Frame(i)
}

func (v View) recorder() *FlightRecorder {
	if v.r == nil {
		panic("recorder: zero View used")
	}
	return v.r
}
