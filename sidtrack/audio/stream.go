package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Stream owns one device handle and pulls PCM from a Feeder every time the
// device asks for a buffer.
//
// A stream whose device failed to open is inert: Start, Stop and Close are
// no-ops and Valid reports false. Callers check Valid (or Err) once instead
// of handling errors on every call.
type Stream struct {
	config  Config
	desired Spec
	granted Spec
	device  string
	silence byte
	err     error

	// Read on the callback thread without locking.
	feeder    atomic.Pointer[Feeder]
	callbacks atomic.Uint64

	// mu guards the control surface only; the callback never takes it.
	mu      sync.Mutex
	handle  Handle
	playing bool
}

// Open negotiates a mono device for cfg and attaches feeder, which may be nil
// for silence. The returned stream is never nil; it starts paused.
func Open(dev Device, cfg Config, feeder Feeder) *Stream {
	s := &Stream{
		config:  cfg,
		desired: cfg.Desired(),
	}
	s.silence = s.desired.Format.Silence()
	if feeder != nil {
		s.feeder.Store(&feeder)
	}

	if err := cfg.Validate(); err != nil {
		s.err = err
		slog.Warn("Audio stream disabled", "error", err)
		return s
	}
	if dev == nil {
		s.err = fmt.Errorf("%w: no device", ErrDeviceUnavailable)
		slog.Warn("Audio stream disabled", "error", s.err)
		return s
	}

	s.device = dev.Name()
	granted, h, err := dev.Open(s.desired, s.callback)
	if err != nil {
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		s.err = err
		slog.Warn("Failed to open audio device", "device", s.device, "error", err)
		return s
	}

	s.handle = h
	s.granted = granted
	s.silence = granted.Format.Silence()

	slog.Info("Audio device opened",
		"device", s.device,
		"sample_rate", granted.SampleRate,
		"format", granted.Format,
		"buffer_samples", granted.Samples,
		"requested_duration", cfg.BufferDuration)
	if granted != s.desired {
		slog.Debug("Audio device granted a different spec",
			"want_rate", s.desired.SampleRate, "got_rate", granted.SampleRate,
			"want_format", s.desired.Format, "got_format", granted.Format,
			"want_samples", s.desired.Samples, "got_samples", granted.Samples)
	}

	return s
}

// callback is the real-time path.
func (s *Stream) callback(buf []byte) {
	s.callbacks.Add(1)
	if f := s.feeder.Load(); f != nil {
		(*f).FeedPCM(buf)
		return
	}
	fill(buf, s.silence)
}

// Valid reports whether the stream holds an open device.
func (s *Stream) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Err returns why the device could not be opened, or nil.
func (s *Stream) Err() error {
	return s.err
}

// Spec returns the granted device spec; zero for an inert stream.
func (s *Stream) Spec() Spec {
	return s.granted
}

// Desired returns the spec that was requested from the device.
func (s *Stream) Desired() Spec {
	return s.desired
}

// Device returns the name of the device the stream was opened on.
func (s *Stream) Device() string {
	return s.device
}

// Start resumes the device clock. Idempotent.
func (s *Stream) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil || s.playing {
		return
	}
	s.handle.Pause(false)
	s.playing = true
}

// Stop pauses the device clock. Idempotent.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil || !s.playing {
		return
	}
	s.handle.Pause(true)
	s.playing = false
}

// Playing reports whether the device clock is running.
func (s *Stream) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Attach swaps in feeder for subsequent callbacks. Used when the feeder
// depends on the granted spec and so can only be built after Open.
func (s *Stream) Attach(feeder Feeder) {
	if feeder == nil {
		s.feeder.Store(nil)
		return
	}
	s.feeder.Store(&feeder)
}

// Detach removes the feeder; later callbacks produce silence. The feeder
// may be released once Detach returns and any in-flight callback finishes.
func (s *Stream) Detach() {
	s.feeder.Store(nil)
}

// Callbacks returns how many buffers the device has requested so far.
func (s *Stream) Callbacks() uint64 {
	return s.callbacks.Load()
}

// Close releases the device handle. The stream is inert afterwards.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil
	}
	err := s.handle.Close()
	s.handle = nil
	s.playing = false
	if err != nil {
		return fmt.Errorf("failed to close audio device %s: %w", s.device, err)
	}
	slog.Debug("Audio device closed", "device", s.device, "callbacks", s.callbacks.Load())
	return nil
}
