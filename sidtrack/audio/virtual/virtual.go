// Package virtual provides an audio device driven by a software clock.
// It behaves like a hardware device from the stream's point of view: it
// opens paused, calls back on its own goroutine once per buffer period, and
// never calls back after Close returns.
package virtual

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-sidtrack/sidtrack/audio"
)

const minPeriod = 100 * time.Microsecond

// Device is a clock-driven audio device with no audible output.
type Device struct {
	grant  func(audio.Spec) audio.Spec
	sink   func([]byte)
	period time.Duration
}

// Option configures a virtual device.
type Option func(*Device)

// WithGrant makes the device grant a spec other than the one requested.
func WithGrant(fn func(desired audio.Spec) audio.Spec) Option {
	return func(d *Device) { d.grant = fn }
}

// WithSink observes every filled buffer on the device goroutine.
// The slice is reused; sinks must not retain it.
func WithSink(fn func(buf []byte)) Option {
	return func(d *Device) { d.sink = fn }
}

// WithPeriod overrides the real-time buffer period.
func WithPeriod(period time.Duration) Option {
	return func(d *Device) { d.period = period }
}

func New(opts ...Option) *Device {
	d := &Device{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Name() string {
	return "virtual"
}

func (d *Device) Open(desired audio.Spec, cb audio.Callback) (audio.Spec, audio.Handle, error) {
	granted := desired
	if d.grant != nil {
		granted = d.grant(desired)
	}
	if granted.SampleRate <= 0 || granted.Samples <= 0 || granted.Channels <= 0 {
		return audio.Spec{}, nil, fmt.Errorf("%w: virtual device cannot grant %+v", audio.ErrDeviceUnavailable, granted)
	}

	period := d.period
	if period <= 0 {
		period = granted.Period()
	}
	period = max(period, minPeriod)

	h := &handle{
		cb:      cb,
		sink:    d.sink,
		buf:     make([]byte, granted.BufferBytes()),
		period:  period,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	h.paused.Store(true)
	go h.run()

	return granted, h, nil
}

type handle struct {
	cb     audio.Callback
	sink   func([]byte)
	buf    []byte
	period time.Duration

	paused    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

func (h *handle) run() {
	defer close(h.stopped)

	ticker := time.NewTicker(h.period)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			if h.paused.Load() {
				continue
			}
			h.cb(h.buf)
			if h.sink != nil {
				h.sink(h.buf)
			}
		}
	}
}

func (h *handle) Pause(paused bool) {
	h.paused.Store(paused)
}

func (h *handle) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
	})
	<-h.stopped
	return nil
}
