package backend

import (
	"github.com/valerio/go-sidtrack/sidtrack/input"
	"github.com/valerio/go-sidtrack/sidtrack/recorder"
)

// Backend is a presentation surface for the flight recorder.
// Backends are responsible for:
// - Showing the recorded history through the View (lock, read, unlock)
// - Translating platform-specific input to Actions
// - Reporting session-level requests (quit, audio toggle) back to the session
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config Config) error

	// Update presents the current history and collects input. Backends must
	// hold the view's lock only while reading frames, never across I/O.
	Update(view recorder.View) ([]input.Event, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for backends
type Config struct {
	Title        string
	Status       func() Status  // Optional live session status
	InputManager *input.Manager // Shared input manager, may be nil
}

// Status is a snapshot of the session for display.
type Status struct {
	Device     string
	AudioValid bool
	Playing    bool
	Paused     bool
	Ticks      uint64
	Callbacks  uint64
	Underruns  uint64
	Buffered   int
}
