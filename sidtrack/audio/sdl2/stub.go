//go:build !sdl2

package sdl2

import (
	"fmt"

	"github.com/valerio/go-sidtrack/sidtrack/audio"
)

// Device stub for when SDL2 is not available
type Device struct {
	DeviceName string
}

// New creates a stub SDL2 device that never opens
func New() *Device {
	return &Device{}
}

func (d *Device) Name() string {
	return "sdl2"
}

// Open returns an error indicating SDL2 is not available
func (d *Device) Open(audio.Spec, audio.Callback) (audio.Spec, audio.Handle, error) {
	return audio.Spec{}, nil, fmt.Errorf("%w: SDL2 audio not available - build with -tags sdl2 to enable", audio.ErrDeviceUnavailable)
}
