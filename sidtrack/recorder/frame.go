package recorder

// SIDRegisterCount is the number of write-visible SID registers (D400-D418).
const SIDRegisterCount = 0x19

// CPUState is the 6502 register file at the end of a tick.
type CPUState struct {
	PC uint16
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	P  uint8 // status flags
}

// Frame is one tick's snapshot of the emulated machine. It holds no
// pointers so it is copied by value into its slot and never allocated
// separately.
type Frame struct {
	Tick   uint64 // logical tick that produced the frame
	Cycles uint32 // CPU cycles spent in the tick
	CPU    CPUState
	SID    [SIDRegisterCount]uint8
}

// VoiceFrequency returns the 16-bit frequency register of voice 0..2.
func (f *Frame) VoiceFrequency(voice int) uint16 {
	base := voice * 7
	return uint16(f.SID[base]) | uint16(f.SID[base+1])<<8
}

// VoiceControl returns the control register (waveform, gate) of voice 0..2.
func (f *Frame) VoiceControl(voice int) uint8 {
	return f.SID[voice*7+4]
}

// Volume returns the master volume nibble.
func (f *Frame) Volume() uint8 {
	return f.SID[0x18] & 0x0F
}
