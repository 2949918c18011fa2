package audio

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingFeeder_RoundsUp(t *testing.T) {
	assert.Equal(t, 1, NewRingFeeder(FormatS16LE, 1).Capacity())
	assert.Equal(t, 128, NewRingFeeder(FormatS16LE, 100).Capacity())
	assert.Equal(t, 256, NewRingFeeder(FormatS16LE, 256).Capacity())
	assert.Panics(t, func() { NewRingFeeder(FormatU8, 0) })
}

func TestRingFeeder_S16Encoding(t *testing.T) {
	r := NewRingFeeder(FormatS16LE, 16)
	require.Equal(t, 3, r.Write([]int16{1, -1, 0x1234}))

	buf := make([]byte, 6)
	r.FeedPCM(buf)

	assert.Equal(t, []byte{0x01, 0x00, 0xFF, 0xFF, 0x34, 0x12}, buf)
	assert.Equal(t, 0, r.Buffered())
	assert.Equal(t, uint64(0), r.Underruns())
}

func TestRingFeeder_U8Encoding(t *testing.T) {
	r := NewRingFeeder(FormatU8, 16)
	r.Write([]int16{-32768, 0, 32767, 256})

	buf := make([]byte, 4)
	r.FeedPCM(buf)

	assert.Equal(t, []byte{0x00, 0x80, 0xFF, 0x81}, buf)
}

func TestRingFeeder_UnderrunPadsWithSilence(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		silence byte
	}{
		{"s16", FormatS16LE, 0x00},
		{"u8", FormatU8, 0x80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingFeeder(tt.format, 16)
			r.Write([]int16{0x7F00, 0x7F00})

			buf := make([]byte, 8*tt.format.BytesPerSample())
			for i := range buf {
				buf[i] = 0x42
			}
			r.FeedPCM(buf)

			tail := buf[2*tt.format.BytesPerSample():]
			for _, b := range tail {
				assert.Equal(t, tt.silence, b)
			}
			assert.Equal(t, uint64(1), r.Underruns())
		})
	}
}

func TestRingFeeder_DropsWhenFull(t *testing.T) {
	r := NewRingFeeder(FormatS16LE, 4)

	assert.Equal(t, 4, r.Write([]int16{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, uint64(2), r.Dropped())
	assert.Equal(t, 4, r.Buffered())

	buf := make([]byte, 4)
	r.FeedPCM(buf)
	assert.Equal(t, 2, r.Buffered())

	assert.Equal(t, 2, r.Write([]int16{7, 8, 9}))

	out := make([]byte, 8)
	r.FeedPCM(out)
	got := []int16{
		int16(binary.LittleEndian.Uint16(out[0:])),
		int16(binary.LittleEndian.Uint16(out[2:])),
		int16(binary.LittleEndian.Uint16(out[4:])),
		int16(binary.LittleEndian.Uint16(out[6:])),
	}
	assert.Equal(t, []int16{3, 4, 7, 8}, got)
}

func TestRingFeeder_ConcurrentOrdering(t *testing.T) {
	const total = 200000
	r := NewRingFeeder(FormatS16LE, 1024)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		chunk := make([]int16, 64)
		next := 0
		for next < total {
			n := 0
			for n < len(chunk) && next+n < total {
				chunk[n] = int16((next + n) % 30000)
				n++
			}
			next += r.Write(chunk[:n])
		}
	}()

	buf := make([]byte, 256)
	expected := 0
	for expected < total {
		before := r.Buffered()
		if before == 0 {
			continue
		}
		n := min(before, len(buf)/2)
		r.FeedPCM(buf[:2*n])
		for i := 0; i < n; i++ {
			got := int16(binary.LittleEndian.Uint16(buf[2*i:]))
			if got != int16(expected%30000) {
				t.Fatalf("sample %d = %d, want %d", expected, got, expected%30000)
			}
			expected++
		}
	}
	wg.Wait()

	assert.Equal(t, uint64(0), r.Underruns())
}
