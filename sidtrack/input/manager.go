package input

import (
	"sync"
	"time"

	"github.com/valerio/go-sidtrack/sidtrack/input/action"
	"github.com/valerio/go-sidtrack/sidtrack/input/event"
)

const (
	// debounceDuration is the minimum time between debounced events
	debounceDuration = 300 * time.Millisecond
)

// Event is an action reported by a backend.
type Event struct {
	Action action.Action
	Type   event.Type
}

// Manager handles input actions and their associated callbacks
type Manager struct {
	mu            sync.Mutex
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
}

func NewManager() *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
	}
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type. It reports whether the
// event was delivered or dropped by debouncing.
func (m *Manager) Trigger(act action.Action, evt event.Type) bool {
	m.mu.Lock()
	if act.Debounced() && (evt == event.Press || evt == event.Release) {
		now := time.Now()
		if m.lastTriggered[act] == nil {
			m.lastTriggered[act] = make(map[event.Type]time.Time)
		}
		if now.Sub(m.lastTriggered[act][evt]) < debounceDuration {
			m.mu.Unlock()
			return false
		}
		m.lastTriggered[act][evt] = now
	}
	callbacks := append([]func(){}, m.handlers[act][evt]...)
	m.mu.Unlock()

	// Callbacks run unlocked so they may register or trigger further actions.
	for _, callback := range callbacks {
		callback()
	}
	return true
}

// Dispatch triggers every event in order.
func (m *Manager) Dispatch(events []Event) {
	for _, e := range events {
		m.Trigger(e.Action, e.Type)
	}
}
