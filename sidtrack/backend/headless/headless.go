package headless

import (
	"log/slog"
	"os"

	"github.com/valerio/go-sidtrack/sidtrack/backend"
	"github.com/valerio/go-sidtrack/sidtrack/input"
	"github.com/valerio/go-sidtrack/sidtrack/input/action"
	"github.com/valerio/go-sidtrack/sidtrack/input/event"
	"github.com/valerio/go-sidtrack/sidtrack/recorder"
)

// Backend implements the Backend interface for automated runs: it logs the
// newest recorded frame periodically and asks to quit once maxTicks frames
// have been recorded.
type Backend struct {
	config      backend.Config
	maxTicks    uint64
	logInterval uint64
	lastLogged  uint64
	quitSent    bool
}

// New creates a headless backend. A logInterval of 0 disables progress logs.
func New(maxTicks uint64, logInterval uint64) *Backend {
	return &Backend{
		maxTicks:    maxTicks,
		logInterval: logInterval,
	}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config

	// Set up debug logging for headless mode
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	slog.Info("Running headless mode", "ticks", h.maxTicks, "log_interval", h.logInterval)
	return nil
}

// Update logs progress and signals completion via a quit event.
func (h *Backend) Update(view recorder.View) ([]input.Event, error) {
	recorded := view.RecordedCount()

	if h.logInterval > 0 && recorded/h.logInterval > h.lastLogged/h.logInterval {
		h.lastLogged = recorded
		h.logNewest(view)
	}

	if h.maxTicks > 0 && recorded >= h.maxTicks && !h.quitSent {
		h.quitSent = true
		attrs := []any{"ticks", recorded, "capacity", view.Size()}
		if h.config.Status != nil {
			st := h.config.Status()
			attrs = append(attrs, "device", st.Device, "callbacks", st.Callbacks, "underruns", st.Underruns)
		}
		slog.Info("Headless execution completed", attrs...)
		return []input.Event{{Action: action.Quit, Type: event.Press}}, nil
	}

	return nil, nil
}

func (h *Backend) logNewest(view recorder.View) {
	var (
		frame recorder.Frame
		slot  int
		ok    bool
	)
	view.Read(func(v recorder.View) {
		slot, ok = v.NewestIndex()
		if ok {
			frame = v.At(slot)
		}
	})
	if !ok {
		return
	}

	slog.Info("Tick progress",
		"recorded", view.RecordedCount(),
		"total", h.maxTicks,
		"slot", slot,
		"tick", frame.Tick,
		"pc", frame.CPU.PC,
		"v1_freq", frame.VoiceFrequency(0))
}

func (h *Backend) Cleanup() error {
	return nil
}
