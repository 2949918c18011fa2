package driver

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/valerio/go-sidtrack/sidtrack/recorder"
	"github.com/valerio/go-sidtrack/sidtrack/timing"
)

const pausedPoll = time.Millisecond

// SampleSink accepts rendered PCM without blocking. audio.RingFeeder is one.
type SampleSink interface {
	Write(samples []int16) int
}

// Driver advances a Machine one tick at a time, records each frame and
// pushes the tick's samples toward the audio device.
type Driver struct {
	machine  Machine
	recorder *recorder.FlightRecorder
	sink     SampleSink
	limiter  timing.Limiter
	clock    *timing.SampleClock

	scratch []int16
	ticks   atomic.Uint64
	paused  atomic.Bool
}

// New wires a driver. sink may be nil when audio is disabled.
func New(m Machine, r *recorder.FlightRecorder, sink SampleSink, limiter timing.Limiter, clock *timing.SampleClock) *Driver {
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	return &Driver{
		machine:  m,
		recorder: r,
		sink:     sink,
		limiter:  limiter,
		clock:    clock,
	}
}

// Tick runs exactly one logical tick.
func (d *Driver) Tick() {
	d.recorder.Record(d.machine.Step())

	n := 0
	if d.clock != nil {
		n = d.clock.Next()
	}
	if cap(d.scratch) < n {
		d.scratch = make([]int16, n)
	}
	buf := d.scratch[:n]
	d.machine.Render(buf)
	if d.sink != nil && n > 0 {
		d.sink.Write(buf)
	}

	d.ticks.Add(1)
}

// Run ticks at the limiter's pace until ctx is done or maxTicks ticks have
// run (0 means no limit). Paused drivers keep pacing but do not tick.
func (d *Driver) Run(ctx context.Context, maxTicks uint64) error {
	d.limiter.Reset()
	slog.Debug("Driver started", "max_ticks", maxTicks)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Driver stopped", "ticks", d.Ticks(), "reason", ctx.Err())
			return ctx.Err()
		default:
		}

		if maxTicks > 0 && d.Ticks() >= maxTicks {
			slog.Debug("Driver finished", "ticks", d.Ticks())
			return nil
		}

		d.limiter.WaitForNextFrame()
		if d.paused.Load() {
			time.Sleep(pausedPoll)
			continue
		}
		d.Tick()
	}
}

// Ticks returns how many ticks have run.
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}

// SetPaused freezes or resumes emulation; the flight recorder keeps its
// history while paused so it can be scrubbed.
func (d *Driver) SetPaused(paused bool) {
	d.paused.Store(paused)
}

func (d *Driver) Paused() bool {
	return d.paused.Load()
}
