//go:build sdl2

package sdl2

// typedef unsigned char Uint8;
// void sidtrackAudioCallback(void *userdata, Uint8 *stream, int len);
import "C"

import (
	"fmt"
	"log/slog"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/valerio/go-sidtrack/sidtrack/audio"
	"github.com/veandco/go-sdl2/sdl"
)

// Device opens the default SDL2 playback device.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stub, see build tags (sdl2)
type Device struct {
	// Name of the playback device, empty for the system default.
	DeviceName string
}

// New creates an SDL2 device for the system default output.
func New() *Device {
	return &Device{}
}

func (d *Device) Name() string {
	if d.DeviceName == "" {
		return "sdl2"
	}
	return "sdl2:" + d.DeviceName
}

func (d *Device) Open(desired audio.Spec, cb audio.Callback) (audio.Spec, audio.Handle, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return audio.Spec{}, nil, fmt.Errorf("%w: failed to initialize SDL2 audio: %v", audio.ErrDeviceUnavailable, err)
	}

	h := &handle{cb: cb}
	h.ref = cgo.NewHandle(h)

	want := sdl.AudioSpec{
		Freq:     int32(desired.SampleRate),
		Format:   toSDLFormat(desired.Format),
		Channels: uint8(desired.Channels),
		Samples:  uint16(min(desired.Samples, audio.MaxBufferSamples)),
		Callback: sdl.AudioCallback(C.sidtrackAudioCallback),
		UserData: unsafe.Pointer(uintptr(h.ref)),
	}
	var got sdl.AudioSpec

	id, err := sdl.OpenAudioDevice(d.DeviceName, false, &want, &got, 0)
	if err != nil {
		h.ref.Delete()
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return audio.Spec{}, nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}
	h.id = id

	format, ok := fromSDLFormat(got.Format)
	if !ok {
		h.Close()
		return audio.Spec{}, nil, fmt.Errorf("%w: unsupported granted format %#x", audio.ErrDeviceUnavailable, got.Format)
	}

	granted := audio.Spec{
		SampleRate: int(got.Freq),
		Format:     format,
		Channels:   int(got.Channels),
		Samples:    int(got.Samples),
	}
	slog.Debug("SDL2 audio device opened", "id", id, "size", got.Size, "silence", got.Silence)

	return granted, h, nil
}

type handle struct {
	id        sdl.AudioDeviceID
	cb        audio.Callback
	ref       cgo.Handle
	closeOnce sync.Once
}

func (h *handle) Pause(paused bool) {
	sdl.PauseAudioDevice(h.id, paused)
}

// Close stops the device; SDL guarantees the callback is not running once
// SDL_CloseAudioDevice returns.
func (h *handle) Close() error {
	h.closeOnce.Do(func() {
		sdl.CloseAudioDevice(h.id)
		h.ref.Delete()
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
	})
	return nil
}

//export sidtrackAudioCallback
func sidtrackAudioCallback(userdata unsafe.Pointer, stream *C.Uint8, length C.int) {
	h := cgo.Handle(uintptr(userdata)).Value().(*handle)
	h.cb(unsafe.Slice((*byte)(unsafe.Pointer(stream)), int(length)))
}

func toSDLFormat(f audio.Format) sdl.AudioFormat {
	if f == audio.FormatS16LE {
		return sdl.AUDIO_S16LSB
	}
	return sdl.AUDIO_U8
}

func fromSDLFormat(f sdl.AudioFormat) (audio.Format, bool) {
	switch f {
	case sdl.AUDIO_S16LSB:
		return audio.FormatS16LE, true
	case sdl.AUDIO_U8:
		return audio.FormatU8, true
	default:
		return 0, false
	}
}
