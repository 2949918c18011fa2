package event

// Type represents the type of input event
type Type int

const (
	Press   Type = iota // Key pressed down (debounced for toggles)
	Release             // Key released (debounced for toggles)
	Hold                // Continuous while pressed (not debounced)
)
