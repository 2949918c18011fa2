package action

// Action represents input actions that can be performed in the viewer
type Action int

const (
	// History navigation
	ScrubBack Action = iota
	ScrubForward
	PageBack
	PageForward
	FollowNewest

	// Session controls
	AudioToggle
	EmulationPauseToggle
	HistoryReset
	Quit
)

var names = map[Action]string{
	ScrubBack:            "scrub_back",
	ScrubForward:         "scrub_forward",
	PageBack:             "page_back",
	PageForward:          "page_forward",
	FollowNewest:         "follow_newest",
	AudioToggle:          "audio_toggle",
	EmulationPauseToggle: "emulation_pause_toggle",
	HistoryReset:         "history_reset",
	Quit:                 "quit",
}

func (a Action) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return "unknown"
}

// Debounced reports whether repeated presses of the action are collapsed.
// Toggles are; navigation must repeat freely.
func (a Action) Debounced() bool {
	switch a {
	case AudioToggle, EmulationPauseToggle, HistoryReset, FollowNewest:
		return true
	default:
		return false
	}
}
