package sidtrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-sidtrack/sidtrack/audio"
	"github.com/valerio/go-sidtrack/sidtrack/audio/oto"
	"github.com/valerio/go-sidtrack/sidtrack/audio/sdl2"
	"github.com/valerio/go-sidtrack/sidtrack/audio/virtual"
	"github.com/valerio/go-sidtrack/sidtrack/backend"
	"github.com/valerio/go-sidtrack/sidtrack/config"
	"github.com/valerio/go-sidtrack/sidtrack/driver"
	"github.com/valerio/go-sidtrack/sidtrack/input"
	"github.com/valerio/go-sidtrack/sidtrack/input/action"
	"github.com/valerio/go-sidtrack/sidtrack/input/event"
	"github.com/valerio/go-sidtrack/sidtrack/recorder"
	"github.com/valerio/go-sidtrack/sidtrack/timing"
)

// uiPeriod paces the backend loop; about 60 redraws per second.
const uiPeriod = 16 * time.Millisecond

// DeviceFor maps a config device name to an audio device. Unknown names and
// "none" give a device that always fails to open, so the session runs mute.
func DeviceFor(name string) audio.Device {
	switch name {
	case "sdl2":
		return sdl2.New()
	case "oto":
		return oto.New()
	case "virtual":
		return virtual.New()
	default:
		return audio.Unavailable(fmt.Sprintf("audio device %q disabled", name))
	}
}

// Session ties one emulation driver, its flight recorder, an audio stream
// and a presentation backend together.
type Session struct {
	config   config.Config
	recorder *recorder.FlightRecorder
	ring     *audio.RingFeeder
	stream   *audio.Stream
	driver   *driver.Driver
	limiter  timing.Limiter
	backend  backend.Backend
	input    *input.Manager

	maxTicks  uint64
	quit      atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Option customises a session before it is wired.
type Option func(*options)

type options struct {
	device   audio.Device
	machine  driver.Machine
	limiter  timing.Limiter
	maxTicks uint64
}

// WithDevice overrides the device chosen by name in the config.
func WithDevice(dev audio.Device) Option {
	return func(o *options) { o.device = dev }
}

// WithMachine replaces the built-in tone machine.
func WithMachine(m driver.Machine) Option {
	return func(o *options) { o.machine = m }
}

// WithLimiter replaces the limiter named in the config. The session stops
// it on Close.
func WithLimiter(l timing.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithMaxTicks stops the driver after n ticks; 0 runs until quit.
func WithMaxTicks(n uint64) Option {
	return func(o *options) { o.maxTicks = n }
}

// NewSession validates cfg, opens the audio stream and initializes b. A
// failed audio device does not fail the session: it runs mute and the
// stream reports the reason through Err.
func NewSession(cfg config.Config, b backend.Backend, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if b == nil {
		return nil, errors.New("no backend")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.device == nil {
		o.device = DeviceFor(cfg.Audio.Device)
	}

	limiter := o.limiter
	if limiter == nil {
		var err error
		limiter, err = timing.New(cfg.Machine.Limiter, cfg.Machine.TickRate)
		if err != nil {
			return nil, err
		}
	}

	s := &Session{
		config:   cfg,
		recorder: recorder.New(cfg.Recorder.Capacity),
		limiter:  limiter,
		backend:  b,
		input:    input.NewManager(),
		maxTicks: o.maxTicks,
	}

	// The ring encodes into whatever format the device granted, so it is
	// built after Open and attached once the granted format is known.
	s.stream = audio.Open(o.device, cfg.StreamConfig(), nil)
	spec := s.stream.Desired()
	if s.stream.Valid() {
		spec = s.stream.Spec()
	}
	s.ring = audio.NewRingFeeder(spec.Format, cfg.Audio.RingSamples)
	s.stream.Attach(s.ring)

	machine := o.machine
	if machine == nil {
		machine = driver.NewToneMachine(spec.SampleRate, cfg.Clock(), cfg.Machine.TickRate, cfg.Machine.Tone)
	}
	var sink driver.SampleSink
	if s.stream.Valid() {
		sink = s.ring
	}
	s.driver = driver.New(machine, s.recorder, sink, limiter,
		timing.NewSampleClock(spec.SampleRate, cfg.Machine.TickRate))

	s.setupCallbacks()

	if err := b.Init(backend.Config{
		Title:        "sidtrack",
		Status:       s.Status,
		InputManager: s.input,
	}); err != nil {
		s.stream.Close()
		timing.Stop(s.limiter)
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	return s, nil
}

func (s *Session) setupCallbacks() {
	s.input.On(action.Quit, event.Press, func() {
		s.quit.Store(true)
	})
	s.input.On(action.AudioToggle, event.Press, func() {
		if s.stream.Playing() {
			s.stream.Stop()
			slog.Info("Audio paused")
			return
		}
		s.stream.Start()
		slog.Info("Audio resumed", "valid", s.stream.Valid())
	})
	s.input.On(action.EmulationPauseToggle, event.Press, func() {
		paused := !s.driver.Paused()
		s.driver.SetPaused(paused)
		slog.Info("Emulation pause toggled", "paused", paused)
	})
	s.input.On(action.HistoryReset, event.Press, func() {
		s.recorder.Reset()
		slog.Info("Flight recorder cleared")
	})
}

// Run starts audio and the driver, then drives the backend on the calling
// goroutine until quit is requested, the driver finishes and the backend
// has seen every frame, or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.stream.Start()

	driverDone := make(chan error, 1)
	go func() {
		driverDone <- s.driver.Run(ctx, s.maxTicks)
	}()

	finished := false
	stopDriver := func() {
		cancel()
		if !finished {
			<-driverDone
			finished = true
		}
	}

	view := recorder.NewView(s.recorder)
	ticker := time.NewTicker(uiPeriod)
	defer ticker.Stop()

	for {
		events, err := s.backend.Update(view)
		if err != nil {
			stopDriver()
			return fmt.Errorf("backend update failed: %w", err)
		}
		s.input.Dispatch(events)

		if s.quit.Load() {
			stopDriver()
			slog.Info("Session quit requested", "ticks", s.driver.Ticks())
			return nil
		}

		// A finished driver leaves the backend running so the history can
		// still be scrubbed.
		if !finished {
			select {
			case err := <-driverDone:
				finished = true
				if err != nil && ctx.Err() == nil {
					return err
				}
				slog.Info("Driver finished", "ticks", s.driver.Ticks())
			default:
			}
		}

		select {
		case <-ctx.Done():
			stopDriver()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status reports the live state shown by backends.
func (s *Session) Status() backend.Status {
	return backend.Status{
		Device:     s.stream.Device(),
		AudioValid: s.stream.Valid(),
		Playing:    s.stream.Playing(),
		Paused:     s.driver.Paused(),
		Ticks:      s.driver.Ticks(),
		Callbacks:  s.stream.Callbacks(),
		Underruns:  s.ring.Underruns(),
		Buffered:   s.ring.Buffered(),
	}
}

// Recorder returns the session's flight recorder.
func (s *Session) Recorder() *recorder.FlightRecorder {
	return s.recorder
}

// Stream returns the session's audio stream, which may be inert.
func (s *Session) Stream() *audio.Stream {
	return s.stream
}

// Input returns the input manager shared with the backend.
func (s *Session) Input() *input.Manager {
	return s.input
}

// Close stops audio, detaches the feeder and releases the backend. Run must
// have returned. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.stream.Stop()
		s.stream.Detach()

		var errs []error
		if err := s.stream.Close(); err != nil {
			errs = append(errs, err)
		}
		timing.Stop(s.limiter)
		if err := s.backend.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("backend cleanup failed: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
