package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valerio/go-sidtrack/sidtrack/input/action"
	"github.com/valerio/go-sidtrack/sidtrack/input/event"
)

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name           string
		action         action.Action
		eventType      event.Type
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{
			name:           "toggle rapid press - should debounce",
			action:         action.AudioToggle,
			eventType:      event.Press,
			timeBetween:    100 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "toggle slow press - should not debounce",
			action:         action.AudioToggle,
			eventType:      event.Press,
			timeBetween:    400 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "scrub rapid press - should not debounce",
			action:         action.ScrubBack,
			eventType:      event.Press,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "Hold event type - should not debounce",
			action:         action.EmulationPauseToggle,
			eventType:      event.Hold,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			calls := 0
			m.On(tt.action, tt.eventType, func() { calls++ })

			assert.True(t, m.Trigger(tt.action, tt.eventType), "first event always delivered")
			time.Sleep(tt.timeBetween)
			second := m.Trigger(tt.action, tt.eventType)

			if tt.expectDebounce {
				assert.False(t, second)
				assert.Equal(t, 1, calls)
			} else {
				assert.True(t, second)
				assert.Equal(t, 2, calls)
			}
		})
	}
}

func TestManager_CallbackOrderAndDispatch(t *testing.T) {
	m := NewManager()
	var order []string
	m.On(action.Quit, event.Press, func() { order = append(order, "first") })
	m.On(action.Quit, event.Press, func() { order = append(order, "second") })
	m.On(action.ScrubForward, event.Press, func() { order = append(order, "scrub") })

	m.Dispatch([]Event{
		{Action: action.ScrubForward, Type: event.Press},
		{Action: action.Quit, Type: event.Press},
		{Action: action.Quit, Type: event.Release},
	})

	assert.Equal(t, []string{"scrub", "first", "second"}, order)
}

func TestManager_CallbackMayTrigger(t *testing.T) {
	m := NewManager()
	quit := false
	m.On(action.Quit, event.Press, func() { quit = true })
	m.On(action.HistoryReset, event.Press, func() { m.Trigger(action.Quit, event.Press) })

	m.Trigger(action.HistoryReset, event.Press)
	assert.True(t, quit)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "audio_toggle", action.AudioToggle.String())
	assert.Equal(t, "unknown", action.Action(99).String())
}
