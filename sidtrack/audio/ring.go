package audio

import "sync/atomic"

// RingFeeder hands samples from the emulation thread to the device callback
// through a single-producer single-consumer ring. Neither side ever blocks:
// Write drops what does not fit and FeedPCM pads with silence on underrun.
type RingFeeder struct {
	format Format
	data   []int16
	mask   uint64

	// Padding keeps the cursors on separate cache lines.
	_     [8]uint64
	write atomic.Uint64 // producer advances
	_     [8]uint64
	read  atomic.Uint64 // consumer advances
	_     [8]uint64

	underruns atomic.Uint64
	dropped   atomic.Uint64
}

// NewRingFeeder creates a ring holding at least minSamples samples, rounded
// up to a power of two, that encodes into format on the way out.
func NewRingFeeder(format Format, minSamples int) *RingFeeder {
	if minSamples <= 0 {
		panic("audio: ring feeder size must be positive")
	}
	size := 1
	for size < minSamples {
		size <<= 1
		if size <= 0 {
			panic("audio: ring feeder size overflow")
		}
	}
	return &RingFeeder{
		format: format,
		data:   make([]int16, size),
		mask:   uint64(size - 1),
	}
}

// Write queues samples and returns how many were accepted. Only one
// goroutine may call Write.
func (r *RingFeeder) Write(samples []int16) int {
	w := r.write.Load()
	free := uint64(len(r.data)) - (w - r.read.Load())

	n := uint64(len(samples))
	if n > free {
		r.dropped.Add(n - free)
		n = free
	}
	for i := uint64(0); i < n; i++ {
		r.data[(w+i)&r.mask] = samples[i]
	}
	r.write.Store(w + n)
	return int(n)
}

// FeedPCM drains queued samples into buf. Only the device callback may call it.
func (r *RingFeeder) FeedPCM(buf []byte) {
	rd := r.read.Load()
	avail := r.write.Load() - rd

	bps := r.format.BytesPerSample()
	want := uint64(len(buf) / bps)
	n := min(avail, want)

	switch r.format {
	case FormatS16LE:
		for i := uint64(0); i < n; i++ {
			s := uint16(r.data[(rd+i)&r.mask])
			buf[2*i] = byte(s)
			buf[2*i+1] = byte(s >> 8)
		}
	default:
		for i := uint64(0); i < n; i++ {
			s := r.data[(rd+i)&r.mask]
			buf[i] = byte((s >> 8) + 128)
		}
	}
	r.read.Store(rd + n)

	if n < want {
		r.underruns.Add(1)
	}
	fill(buf[int(n)*bps:], r.format.Silence())
}

// Format returns the encoding FeedPCM produces.
func (r *RingFeeder) Format() Format {
	return r.format
}

// Capacity returns the ring size in samples.
func (r *RingFeeder) Capacity() int {
	return len(r.data)
}

// Buffered returns how many samples are waiting for the device.
func (r *RingFeeder) Buffered() int {
	return int(r.write.Load() - r.read.Load())
}

// Underruns counts callbacks that had to pad with silence.
func (r *RingFeeder) Underruns() uint64 {
	return r.underruns.Load()
}

// Dropped counts samples rejected by Write because the ring was full.
func (r *RingFeeder) Dropped() uint64 {
	return r.dropped.Load()
}
