package driver

import (
	"math"

	"github.com/valerio/go-sidtrack/sidtrack/recorder"
	"github.com/valerio/go-sidtrack/sidtrack/timing"
)

// Machine is the emulated system the driver advances. A real implementation
// runs the player routine on a 6502 core and clocks a SID; both are outside
// this module.
type Machine interface {
	// Step runs one logical tick and returns its snapshot.
	Step() recorder.Frame

	// Render fills dst with the PCM produced by the last tick.
	Render(dst []int16)
}

const (
	playAddress   = 0x1003
	stackPointer  = 0xF6
	pulseGate     = 0x41 // pulse waveform, gate on
	maxVolume     = 0x0F
	arpeggioTicks = 6
)

// arpeggio is a major triad, in semitones above the base note.
var arpeggio = [...]float64{0, 4, 7, 12}

// ToneMachine stands in for a SID tune: a pulse voice cycling through an
// arpeggio, with SID registers and CPU state shaped like a real player.
type ToneMachine struct {
	sampleRate int
	clock      int
	cycles     uint32
	base       float64
	amplitude  int16

	tick  uint64
	freq  float64
	phase float64
}

// NewToneMachine creates a machine playing around base Hz at sampleRate,
// clocked at clock Hz and ticking rate times per second.
func NewToneMachine(sampleRate, clock, rate int, base float64) *ToneMachine {
	return &ToneMachine{
		sampleRate: sampleRate,
		clock:      clock,
		cycles:     timing.CyclesPerTick(clock, rate),
		base:       base,
		amplitude:  math.MaxInt16 / 4,
		freq:       base,
	}
}

func (m *ToneMachine) Step() recorder.Frame {
	step := (m.tick / arpeggioTicks) % uint64(len(arpeggio))
	m.freq = m.base * math.Pow(2, arpeggio[step]/12)

	f := recorder.Frame{
		Tick:   m.tick,
		Cycles: m.cycles,
		CPU: recorder.CPUState{
			PC: playAddress,
			A:  uint8(step),
			X:  uint8(m.tick),
			Y:  uint8(m.tick / arpeggioTicks),
			SP: stackPointer,
			P:  0x24,
		},
	}

	reg := m.sidFrequency(m.freq)
	f.SID[0] = uint8(reg)
	f.SID[1] = uint8(reg >> 8)
	f.SID[2] = 0x00 // pulse width lo
	f.SID[3] = 0x08 // pulse width hi: 50%
	f.SID[4] = pulseGate
	f.SID[5] = 0x09 // attack/decay
	f.SID[6] = 0xA0 // sustain/release
	f.SID[0x18] = maxVolume

	m.tick++
	return f
}

func (m *ToneMachine) Render(dst []int16) {
	inc := m.freq / float64(m.sampleRate)
	for i := range dst {
		if m.phase < 0.5 {
			dst[i] = m.amplitude
		} else {
			dst[i] = -m.amplitude
		}
		m.phase += inc
		if m.phase >= 1 {
			m.phase -= 1
		}
	}
}

// sidFrequency converts Hz to the 16-bit oscillator register value.
func (m *ToneMachine) sidFrequency(hz float64) uint16 {
	return uint16(math.Min(hz*16777216/float64(m.clock), math.MaxUint16))
}

var _ Machine = (*ToneMachine)(nil)
