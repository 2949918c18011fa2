// Package config loads session settings from TOML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/valerio/go-sidtrack/sidtrack/audio"
	"github.com/valerio/go-sidtrack/sidtrack/timing"
)

// Config is everything a session needs. Field names match the TOML keys.
type Config struct {
	Audio    Audio    `toml:"audio"`
	Recorder Recorder `toml:"recorder"`
	Machine  Machine  `toml:"machine"`
}

type Audio struct {
	Device         string `toml:"device"` // sdl2, oto, virtual or none
	SampleRate     int    `toml:"sample_rate"`
	BitDepth       int    `toml:"bit_depth"`
	BufferDuration int    `toml:"buffer"`    // samples per device buffer, floored to a power of two
	RingSamples    int    `toml:"ring_size"` // hand-off ring between driver and device
}

type Recorder struct {
	Capacity int `toml:"capacity"`
}

type Machine struct {
	TickRate int     `toml:"tick_rate"` // 50 (PAL) or 60 (NTSC)
	Tone     float64 `toml:"tone"`
	Limiter  string  `toml:"limiter"` // adaptive, ticker or none
}

// Default returns a config that plays through SDL2 at 44.1kHz/16-bit and
// keeps about a minute of PAL history.
func Default() Config {
	return Config{
		Audio: Audio{
			Device:         "sdl2",
			SampleRate:     44100,
			BitDepth:       16,
			BufferDuration: 1024,
			RingSamples:    16384,
		},
		Recorder: Recorder{
			Capacity: 3000,
		},
		Machine: Machine{
			TickRate: timing.PAL,
			Tone:     220,
			Limiter:  "adaptive",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value; unknown keys are logged and ignored.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("Unknown config key", "path", path, "key", key.String())
	}
	return cfg, nil
}

// Parse is Load for in-memory TOML.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// StreamConfig returns the audio stream request.
func (c Config) StreamConfig() audio.Config {
	return audio.Config{
		SampleRate:     c.Audio.SampleRate,
		BitDepth:       c.Audio.BitDepth,
		BufferDuration: c.Audio.BufferDuration,
	}
}

// Clock returns the CPU clock matching the tick rate.
func (c Config) Clock() int {
	if c.Machine.TickRate == timing.NTSC {
		return timing.NTSCClock
	}
	return timing.PALClock
}

var validDevices = []string{"sdl2", "oto", "virtual", "none"}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.StreamConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if !contains(validDevices, c.Audio.Device) {
		errs = append(errs, fmt.Errorf("audio device %q not one of %s", c.Audio.Device, strings.Join(validDevices, ", ")))
	}
	if c.Audio.RingSamples <= 0 {
		errs = append(errs, fmt.Errorf("ring size must be positive, got %d", c.Audio.RingSamples))
	}
	if c.Recorder.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("recorder capacity must be positive, got %d", c.Recorder.Capacity))
	}
	if c.Machine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate must be positive, got %d", c.Machine.TickRate))
	}
	if c.Machine.Tone <= 0 {
		errs = append(errs, fmt.Errorf("tone must be positive, got %g", c.Machine.Tone))
	}

	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
