package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/go-sidtrack/sidtrack/backend"
	"github.com/valerio/go-sidtrack/sidtrack/input"
	"github.com/valerio/go-sidtrack/sidtrack/input/action"
	"github.com/valerio/go-sidtrack/sidtrack/input/event"
	"github.com/valerio/go-sidtrack/sidtrack/recorder"
)

const (
	headerHeight = 2
	logHeight    = 6
	logCapacity  = 100
	minWidth     = 80
)

var (
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	headerStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	frameStyle  = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	newestStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
)

// Backend implements the Backend interface using tcell: a scrollable
// listing of the flight recorder, newest frame first, over a log panel.
type Backend struct {
	screen   tcell.Screen
	config   backend.Config
	input    *input.Manager
	logs     *logPanel
	logLevel slog.Level
	cursor   *cursor
	signals  chan os.Signal

	// Reused between updates; filled under the view lock.
	rows     []recorder.Frame
	rowSlots []int
	pageRows int
	recorded uint64
}

// New creates a terminal backend on the controlling terminal.
func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

// NewWithScreen creates a terminal backend drawing on screen, e.g. a
// tcell simulation screen in tests.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen, logLevel: slog.LevelInfo}
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.cursor = newCursor()

	t.input = config.InputManager
	if t.input == nil {
		t.input = input.NewManager()
	}
	t.setupCallbacks()

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	// Route logs into the panel; stderr would corrupt the screen.
	t.logs = newLogPanel(logCapacity)
	slog.SetDefault(slog.New(newLogHandler(t.logs, slog.LevelDebug)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	// Set up signal handling for graceful shutdown
	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	slog.Info("Terminal backend initialized")
	return nil
}

func (t *Backend) setupCallbacks() {
	t.input.On(action.ScrubBack, event.Press, func() { t.cursor.scroll(-1, t.lastRecorded()) })
	t.input.On(action.ScrubForward, event.Press, func() { t.cursor.scroll(1, t.lastRecorded()) })
	t.input.On(action.PageBack, event.Press, func() { t.cursor.scroll(-t.page(), t.lastRecorded()) })
	t.input.On(action.PageForward, event.Press, func() { t.cursor.scroll(t.page(), t.lastRecorded()) })
	t.input.On(action.FollowNewest, event.Press, func() { t.cursor.followNewest() })
}

// Update draws the visible part of the history and processes key events.
func (t *Backend) Update(view recorder.View) ([]input.Event, error) {
	var events []input.Event

	select {
	case sig := <-t.signals:
		slog.Info("Received signal, quitting", "signal", sig)
		events = append(events, input.Event{Action: action.Quit, Type: event.Press})
	default:
	}

	t.recorded = view.RecordedCount()
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	t.render(view)
	return events, nil
}

// Cleanup restores the terminal.
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

var keyMapping = map[tcell.Key]action.Action{
	tcell.KeyUp:     action.ScrubForward,
	tcell.KeyDown:   action.ScrubBack,
	tcell.KeyPgUp:   action.PageForward,
	tcell.KeyPgDn:   action.PageBack,
	tcell.KeyHome:   action.FollowNewest,
	tcell.KeyEscape: action.Quit,
	tcell.KeyCtrlC:  action.Quit,
}

var runeMapping = map[rune]action.Action{
	'k': action.ScrubForward,
	'j': action.ScrubBack,
	'f': action.FollowNewest,
	'a': action.AudioToggle,
	'p': action.EmulationPauseToggle,
	' ': action.EmulationPauseToggle,
	'r': action.HistoryReset,
	'q': action.Quit,
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	act, ok := keyMapping[ev.Key()]
	if !ok && ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case '+':
			t.changeLogLevel(-4)
			return
		case '-':
			t.changeLogLevel(4)
			return
		}
		act, ok = runeMapping[ev.Rune()]
	}
	if ok {
		t.input.Trigger(act, event.Press)
	}
}

// changeLogLevel shows more (negative) or fewer (positive) log lines.
func (t *Backend) changeLogLevel(delta int) {
	level := t.logLevel + slog.Level(delta)
	if level < slog.LevelDebug || level > slog.LevelError {
		return
	}
	t.logLevel = level
	slog.Info("Log panel level changed", "level", level)
}

func (t *Backend) render(view recorder.View) {
	t.screen.Clear()
	width, height := t.screen.Size()

	listHeight := max(height-headerHeight-logHeight-1, 1)
	t.pageRows = listHeight
	if cap(t.rows) < listHeight {
		t.rows = make([]recorder.Frame, listHeight)
		t.rowSlots = make([]int, listHeight)
	}
	t.rows = t.rows[:0]
	t.rowSlots = t.rowSlots[:0]

	var (
		recorded uint64
		filled   int
		newest   int
		hasAny   bool
		top      uint64
	)

	// Copy out the visible frames; draw after releasing the lock.
	view.Read(func(v recorder.View) {
		recorded = v.RecordedCount()
		filled = v.Filled()
		newest, hasAny = v.NewestIndex()

		var available int
		top, available = t.cursor.resolve(recorded, filled)
		for i := 0; i < min(available, listHeight); i++ {
			slot := int((top - uint64(i)) % uint64(v.Size()))
			t.rows = append(t.rows, v.At(slot))
			t.rowSlots = append(t.rowSlots, slot)
		}
	})
	t.recorded = recorded

	t.drawStatus(width, recorded, filled, view.Size())
	t.drawText(0, 1, width, headerStyle, " slot     tick    PC  A  X  Y  SP P  | v1   ctl | v2   ctl | v3   ctl | vol")

	for i, f := range t.rows {
		style := frameStyle
		if hasAny && t.rowSlots[i] == newest {
			style = newestStyle
		}
		if i == 0 && !t.cursor.follow {
			style = style.Reverse(true)
		}
		t.drawText(0, headerHeight+i, width, style, formatFrame(t.rowSlots[i], f))
	}
	if len(t.rows) == 0 {
		t.drawText(0, headerHeight, width, frameStyle, " (no frames recorded)")
	}

	t.drawLogs(height-logHeight, width, height)
	t.screen.Show()
}

func (t *Backend) drawStatus(width int, recorded uint64, filled, capacity int) {
	title := t.config.Title
	if title == "" {
		title = "sidtrack"
	}
	line := fmt.Sprintf(" %s  recorded:%d  held:%d/%d", title, recorded, filled, capacity)
	if !t.cursor.follow {
		line += "  [scrubbing]"
	}

	if t.config.Status != nil {
		st := t.config.Status()
		audioState := "off"
		switch {
		case st.AudioValid && st.Playing:
			audioState = "playing"
		case st.AudioValid:
			audioState = "paused"
		}
		emuState := "running"
		if st.Paused {
			emuState = "paused"
		}
		line += fmt.Sprintf("  audio:%s/%s  emu:%s  cb:%d  underruns:%d  buf:%d",
			st.Device, audioState, emuState, st.Callbacks, st.Underruns, st.Buffered)
	}
	if width < minWidth {
		line = fmt.Sprintf(" %s (widen terminal to %d columns)", title, minWidth)
	}
	t.drawText(0, 0, width, titleStyle, line)
}

func (t *Backend) drawLogs(startY, width, height int) {
	for x := 0; x < width; x++ {
		t.screen.SetContent(x, startY-1, '─', nil, headerStyle)
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logs.recent(height-startY, t.logLevel) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		t.drawText(0, startY+i, width, style, entry.String())
	}
}

func (t *Backend) drawText(x, y, width int, style tcell.Style, text string) {
	for _, ch := range text {
		if x >= width {
			return
		}
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func (t *Backend) lastRecorded() uint64 {
	return t.recorded
}

func (t *Backend) page() int {
	return max(t.pageRows-1, 1)
}

func formatFrame(slot int, f recorder.Frame) string {
	return fmt.Sprintf("%5d %8d  %04X %02X %02X %02X %02X %02X | %04X %02X | %04X %02X | %04X %02X | %X",
		slot, f.Tick, f.CPU.PC, f.CPU.A, f.CPU.X, f.CPU.Y, f.CPU.SP, f.CPU.P,
		f.VoiceFrequency(0), f.VoiceControl(0),
		f.VoiceFrequency(1), f.VoiceControl(1),
		f.VoiceFrequency(2), f.VoiceControl(2),
		f.Volume())
}
