//go:build headless

package oto

import (
	"fmt"

	"github.com/valerio/go-sidtrack/sidtrack/audio"
)

// Device stub for headless builds, which link no audio library.
type Device struct{}

func New() *Device {
	return &Device{}
}

func (d *Device) Name() string {
	return "oto"
}

func (d *Device) Open(audio.Spec, audio.Callback) (audio.Spec, audio.Handle, error) {
	return audio.Spec{}, nil, fmt.Errorf("%w: oto disabled in headless build", audio.ErrDeviceUnavailable)
}
