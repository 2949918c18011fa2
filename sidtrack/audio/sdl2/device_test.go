package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-sidtrack/sidtrack/audio"
)

func TestDeviceImplementsDevice(t *testing.T) {
	var _ audio.Device = (*Device)(nil)
}

// Without a sound card (CI) or without the sdl2 tag the stream must come up
// inert instead of failing the caller.
func TestOpen_NeverAbortsCaller(t *testing.T) {
	s := audio.Open(New(), audio.Config{SampleRate: 44100, BitDepth: 16, BufferDuration: 1024}, nil)
	defer s.Close()

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
	})
	if !s.Valid() {
		assert.ErrorIs(t, s.Err(), audio.ErrDeviceUnavailable)
		return
	}
	assert.Equal(t, 1, s.Spec().Channels)
}
