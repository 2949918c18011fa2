package sidtrack_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-sidtrack/sidtrack"
	"github.com/valerio/go-sidtrack/sidtrack/audio"
	"github.com/valerio/go-sidtrack/sidtrack/audio/virtual"
	"github.com/valerio/go-sidtrack/sidtrack/backend"
	"github.com/valerio/go-sidtrack/sidtrack/backend/headless"
	"github.com/valerio/go-sidtrack/sidtrack/config"
	"github.com/valerio/go-sidtrack/sidtrack/input"
	"github.com/valerio/go-sidtrack/sidtrack/input/action"
	"github.com/valerio/go-sidtrack/sidtrack/input/event"
	"github.com/valerio/go-sidtrack/sidtrack/recorder"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Audio.Device = "virtual"
	cfg.Recorder.Capacity = 64
	cfg.Machine.Limiter = "none"
	return cfg
}

// scriptedBackend returns queued events, one batch per Update.
type scriptedBackend struct {
	batches [][]input.Event
	initErr error
	err     error
	updates int
	cleaned bool
	config  backend.Config
}

func (b *scriptedBackend) Init(config backend.Config) error {
	b.config = config
	return b.initErr
}

func (b *scriptedBackend) Update(view recorder.View) ([]input.Event, error) {
	b.updates++
	if b.err != nil {
		return nil, b.err
	}
	if len(b.batches) == 0 {
		return nil, nil
	}
	next := b.batches[0]
	b.batches = b.batches[1:]
	return next, nil
}

func (b *scriptedBackend) Cleanup() error {
	b.cleaned = true
	return nil
}

// stoppableLimiter never waits and records whether it was stopped.
type stoppableLimiter struct {
	stopped int
}

func (l *stoppableLimiter) WaitForNextFrame() {}
func (l *stoppableLimiter) Reset()            {}
func (l *stoppableLimiter) Stop()             { l.stopped++ }

func TestSession_HeadlessRunRecordsEveryTick(t *testing.T) {
	const ticks = 200

	s, err := sidtrack.NewSession(testConfig(), headless.New(ticks, 50), sidtrack.WithMaxTicks(ticks))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx))

	rec := s.Recorder()
	assert.Equal(t, uint64(ticks), rec.RecordedCount())
	assert.Equal(t, 64, rec.Filled())

	slot, ok := rec.NewestIndex()
	require.True(t, ok)
	assert.Equal(t, (ticks-1)%64, slot)
	assert.Equal(t, uint64(ticks-1), rec.Frame(slot).Tick)

	st := s.Status()
	assert.Equal(t, "virtual", st.Device)
	assert.True(t, st.AudioValid)
	assert.True(t, st.Playing)
	assert.Equal(t, uint64(ticks), st.Ticks)
	assert.Positive(t, st.Buffered, "driver pushed samples into the ring")
}

func TestSession_UnavailableDeviceRunsMute(t *testing.T) {
	cfg := testConfig()
	cfg.Audio.Device = "none"

	s, err := sidtrack.NewSession(cfg, headless.New(10, 0), sidtrack.WithMaxTicks(10))
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Stream().Valid())
	assert.ErrorIs(t, s.Stream().Err(), audio.ErrDeviceUnavailable)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(10), s.Recorder().RecordedCount())

	st := s.Status()
	assert.False(t, st.AudioValid)
	assert.False(t, st.Playing)
	assert.Zero(t, st.Buffered, "mute sessions do not fill the ring")
}

func TestSession_RingFollowsGrantedFormat(t *testing.T) {
	dev := virtual.New(virtual.WithGrant(func(desired audio.Spec) audio.Spec {
		desired.Format = audio.FormatU8
		desired.SampleRate = 22050
		return desired
	}))

	s, err := sidtrack.NewSession(testConfig(), &scriptedBackend{}, sidtrack.WithDevice(dev))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, audio.FormatU8, s.Stream().Spec().Format)
	assert.Equal(t, audio.FormatS16LE, s.Stream().Desired().Format)
}

func TestSession_QuitFromBackend(t *testing.T) {
	b := &scriptedBackend{batches: [][]input.Event{
		nil,
		nil,
		{{Action: action.Quit, Type: event.Press}},
	}}

	s, err := sidtrack.NewSession(testConfig(), b)
	require.NoError(t, err)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 3, b.updates)
	require.NotNil(t, b.config.Status)
	assert.Same(t, s.Input(), b.config.InputManager)

	require.NoError(t, s.Close())
	assert.True(t, b.cleaned)
	assert.False(t, s.Stream().Valid(), "stream closed with the session")
	require.NoError(t, s.Close())
}

func TestSession_BackendErrorStopsRun(t *testing.T) {
	boom := errors.New("screen gone")
	s, err := sidtrack.NewSession(testConfig(), &scriptedBackend{err: boom})
	require.NoError(t, err)
	defer s.Close()

	err = s.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSession_ContextCancelStopsRun(t *testing.T) {
	s, err := sidtrack.NewSession(testConfig(), &scriptedBackend{})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, s.Recorder().RecordedCount())
}

func TestSession_Actions(t *testing.T) {
	s, err := sidtrack.NewSession(testConfig(), &scriptedBackend{})
	require.NoError(t, err)
	defer s.Close()

	in := s.Input()

	assert.False(t, s.Stream().Playing())
	in.Trigger(action.AudioToggle, event.Press)
	assert.True(t, s.Stream().Playing())

	assert.False(t, s.Status().Paused)
	in.Trigger(action.EmulationPauseToggle, event.Press)
	assert.True(t, s.Status().Paused)

	s.Recorder().Record(recorder.Frame{Tick: 1})
	in.Trigger(action.HistoryReset, event.Press)
	assert.Zero(t, s.Recorder().RecordedCount())
}

func TestNewSession_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Recorder.Capacity = 0

	_, err := sidtrack.NewSession(cfg, &scriptedBackend{})
	assert.Error(t, err)

	_, err = sidtrack.NewSession(testConfig(), nil)
	assert.Error(t, err)
}

func TestDeviceFor(t *testing.T) {
	assert.Equal(t, "virtual", sidtrack.DeviceFor("virtual").Name())
	assert.Equal(t, "none", sidtrack.DeviceFor("none").Name())
	assert.Equal(t, "sdl2", sidtrack.DeviceFor("sdl2").Name())
	assert.Equal(t, "oto", sidtrack.DeviceFor("oto").Name())
}

func TestNewSession_BackendInitFailureReleasesResources(t *testing.T) {
	limiter := &stoppableLimiter{}
	dev := &recordingDevice{Device: virtual.New()}

	_, err := sidtrack.NewSession(testConfig(), &scriptedBackend{initErr: errors.New("no tty")},
		sidtrack.WithLimiter(limiter), sidtrack.WithDevice(dev))
	require.Error(t, err)

	assert.Equal(t, 1, limiter.stopped, "limiter stopped on the error path")
	require.NotNil(t, dev.handle)
	assert.True(t, dev.handle.closed, "device closed on the error path")
}

func TestSession_CloseStopsLimiter(t *testing.T) {
	limiter := &stoppableLimiter{}
	s, err := sidtrack.NewSession(testConfig(), &scriptedBackend{}, sidtrack.WithLimiter(limiter))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, limiter.stopped)
}

// recordingDevice wraps a device and remembers whether its handle was closed.
type recordingDevice struct {
	audio.Device
	handle *recordingHandle
}

func (d *recordingDevice) Open(desired audio.Spec, cb audio.Callback) (audio.Spec, audio.Handle, error) {
	granted, h, err := d.Device.Open(desired, cb)
	if err != nil {
		return granted, h, err
	}
	d.handle = &recordingHandle{Handle: h}
	return granted, d.handle, nil
}

type recordingHandle struct {
	audio.Handle
	closed bool
}

func (h *recordingHandle) Close() error {
	h.closed = true
	return h.Handle.Close()
}
