package audio

import (
	"errors"
	"fmt"
	"time"
)

// Format is the PCM sample encoding negotiated with the device.
type Format int

const (
	// FormatU8 is unsigned 8-bit PCM, silence at 0x80.
	FormatU8 Format = iota
	// FormatS16LE is signed 16-bit little-endian PCM, silence at 0.
	FormatS16LE
)

// Channels is fixed to mono for every stream.
const Channels = 1

const (
	u8Silence  = 0x80
	s16Silence = 0x00
)

// FormatForBitDepth maps a requested bit depth to a device format.
// Only 16 selects signed 16-bit; everything else falls back to unsigned 8-bit.
func FormatForBitDepth(bits int) Format {
	if bits == 16 {
		return FormatS16LE
	}
	return FormatU8
}

// BytesPerSample returns the size of one mono sample in bytes.
func (f Format) BytesPerSample() int {
	if f == FormatS16LE {
		return 2
	}
	return 1
}

// BitDepth returns 8 or 16.
func (f Format) BitDepth() int {
	return f.BytesPerSample() * 8
}

// Silence returns the byte value that encodes a zero-amplitude sample.
// For S16LE both bytes of a sample are this value.
func (f Format) Silence() byte {
	if f == FormatS16LE {
		return s16Silence
	}
	return u8Silence
}

func (f Format) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16LE:
		return "s16le"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Spec describes a device configuration, either requested or granted.
type Spec struct {
	SampleRate int
	Format     Format
	Channels   int
	Samples    int // samples per device buffer
}

// BufferBytes returns the size in bytes of one callback buffer.
func (s Spec) BufferBytes() int {
	return s.Samples * s.Channels * s.Format.BytesPerSample()
}

// Period returns how often the device asks for a buffer.
func (s Spec) Period() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.Samples) * time.Second / time.Duration(s.SampleRate)
}

// MaxBufferSamples is the largest device buffer a Config may request. SDL
// carries the buffer size in 16 bits.
const MaxBufferSamples = 1 << 15

// BufferSamples floors the requested buffer duration (in samples) to the
// previous power of two. Requests below 2 yield 1.
//
// Rounding down keeps the size acceptable to devices that require powers of
// two, at the price of a realized latency that can be up to half the request.
func BufferSamples(requested int) int {
	bits := 0
	for size := requested >> 1; size > 0; size >>= 1 {
		bits++
	}
	return 1 << bits
}

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid audio config")
	// ErrDeviceUnavailable reports that no device could be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)

// Config is what a caller asks for when opening a stream.
type Config struct {
	SampleRate     int // Hz
	BitDepth       int // 8 or 16
	BufferDuration int // requested device buffer, in samples
}

// Validate reports whether the config can be turned into a device request.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.BitDepth != 8 && c.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth %d (want 8 or 16)", ErrInvalidConfig, c.BitDepth)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("%w: buffer duration %d", ErrInvalidConfig, c.BufferDuration)
	}
	if BufferSamples(c.BufferDuration) > MaxBufferSamples {
		return fmt.Errorf("%w: buffer duration %d (max %d samples)", ErrInvalidConfig, c.BufferDuration, MaxBufferSamples)
	}
	return nil
}

// Desired builds the mono device request for this config.
func (c Config) Desired() Spec {
	return Spec{
		SampleRate: c.SampleRate,
		Format:     FormatForBitDepth(c.BitDepth),
		Channels:   Channels,
		Samples:    BufferSamples(c.BufferDuration),
	}
}

// Latency is the buffer latency actually requested after rounding.
func (c Config) Latency() time.Duration {
	return c.Desired().Period()
}
