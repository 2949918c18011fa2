package timing

import (
	"fmt"
	"time"
)

// Limiter paces the emulation driver to the machine's tick rate.
type Limiter interface {
	// WaitForNextFrame blocks until the next tick is due.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// Stop releases the resources of limiters that hold any, such as the
// TickerLimiter's ticker. Other limiters are left alone.
func Stop(l Limiter) {
	if s, ok := l.(interface{ Stop() }); ok {
		s.Stop()
	}
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// Tick rates of the C64 video standards, in ticks per second.
// The player routine runs once per video frame.
const (
	PAL  = 50
	NTSC = 60
)

// CPU clocks of the C64 video standards, in Hz.
const (
	PALClock  = 985248
	NTSCClock = 1022727
)

// TickDuration returns the wall-clock length of one tick at rate ticks per second.
func TickDuration(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Second / time.Duration(rate)
}

// SamplesPerTick is how many PCM samples one tick must produce to keep
// the device fed. The fractional remainder is spread by SampleClock.
func SamplesPerTick(sampleRate, tickRate int) float64 {
	if tickRate <= 0 {
		return 0
	}
	return float64(sampleRate) / float64(tickRate)
}

// CyclesPerTick returns the CPU cycles in one tick for a clock and rate.
func CyclesPerTick(clock, rate int) uint32 {
	if rate <= 0 {
		return 0
	}
	return uint32(clock / rate)
}

// SampleClock hands out whole sample counts per tick without drifting.
type SampleClock struct {
	perTick float64
	acc     float64
}

func NewSampleClock(sampleRate, tickRate int) *SampleClock {
	return &SampleClock{perTick: SamplesPerTick(sampleRate, tickRate)}
}

// Next returns the number of samples to render for the next tick.
func (c *SampleClock) Next() int {
	c.acc += c.perTick
	n := int(c.acc)
	c.acc -= float64(n)
	return n
}

// New builds a limiter by name: "adaptive", "ticker" or "none".
func New(kind string, rate int) (Limiter, error) {
	switch kind {
	case "", "adaptive":
		return NewAdaptiveLimiter(TickDuration(rate)), nil
	case "ticker":
		return NewTickerLimiter(TickDuration(rate)), nil
	case "none":
		return NewNoOpLimiter(), nil
	default:
		return nil, fmt.Errorf("unknown limiter %q", kind)
	}
}
