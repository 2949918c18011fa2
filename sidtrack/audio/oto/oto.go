//go:build !headless

// Package oto plays a stream through ebitengine/oto.
package oto

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/valerio/go-sidtrack/sidtrack/audio"
)

// oto allows a single context per process; later opens share it and are
// granted its rate and format.
var (
	ctxMu   sync.Mutex
	ctx     *oto.Context
	ctxSpec audio.Spec
)

// Device pulls samples through an oto player.
type Device struct{}

func New() *Device {
	return &Device{}
}

func (d *Device) Name() string {
	return "oto"
}

func (d *Device) Open(desired audio.Spec, cb audio.Callback) (audio.Spec, audio.Handle, error) {
	c, spec, err := sharedContext(desired)
	if err != nil {
		return audio.Spec{}, nil, fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	granted := spec
	granted.Samples = desired.Samples

	r := &reader{
		cb:    cb,
		chunk: make([]byte, granted.BufferBytes()),
	}
	r.pos = len(r.chunk)
	player := c.NewPlayer(r)
	player.SetBufferSize(granted.BufferBytes())

	return granted, &handle{player: player, reader: r}, nil
}

func sharedContext(desired audio.Spec) (*oto.Context, audio.Spec, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()

	if ctx != nil {
		return ctx, ctxSpec, nil
	}

	format := oto.FormatUnsignedInt8
	if desired.Format == audio.FormatS16LE {
		format = oto.FormatSignedInt16LE
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   desired.SampleRate,
		ChannelCount: desired.Channels,
		Format:       format,
		BufferSize:   desired.Period(),
	})
	if err != nil {
		return nil, audio.Spec{}, err
	}
	<-ready

	ctx = c
	ctxSpec = audio.Spec{
		SampleRate: desired.SampleRate,
		Format:     desired.Format,
		Channels:   desired.Channels,
	}
	slog.Debug("oto context created", "sample_rate", desired.SampleRate, "format", desired.Format, "buffer", desired.Period().Round(time.Microsecond))
	return ctx, ctxSpec, nil
}

// reader adapts oto's variable-size pulls to fixed-size callbacks.
type reader struct {
	mu     sync.Mutex
	cb     audio.Callback
	chunk  []byte
	pos    int // next unread byte of chunk
	closed bool
}

func (r *reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		clear(p)
		return len(p), nil
	}

	n := 0
	for n < len(p) {
		if r.pos == len(r.chunk) {
			r.cb(r.chunk)
			r.pos = 0
		}
		c := copy(p[n:], r.chunk[r.pos:])
		r.pos += c
		n += c
	}
	return n, nil
}

type handle struct {
	player *oto.Player
	reader *reader
	once   sync.Once
}

func (h *handle) Pause(paused bool) {
	if paused {
		h.player.Pause()
		return
	}
	h.player.Play()
}

func (h *handle) Close() error {
	var err error
	h.once.Do(func() {
		h.reader.mu.Lock()
		h.reader.closed = true
		h.reader.mu.Unlock()
		err = h.player.Close()
	})
	return err
}
