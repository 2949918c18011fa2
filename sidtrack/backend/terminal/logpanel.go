package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// logEntry is one captured log record, already formatted.
type logEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

func (e logEntry) String() string {
	var level string
	switch {
	case e.Level >= slog.LevelError:
		level = "ERR"
	case e.Level >= slog.LevelWarn:
		level = "WRN"
	case e.Level >= slog.LevelInfo:
		level = "INF"
	default:
		level = "DBG"
	}
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05"), level, e.Message)
}

// logPanel keeps the most recent log lines for the bottom of the screen,
// since writing to stderr would tear the terminal UI.
type logPanel struct {
	mu      sync.Mutex
	entries []logEntry
	next    int
	count   int
}

func newLogPanel(size int) *logPanel {
	return &logPanel{entries: make([]logEntry, size)}
}

func (p *logPanel) add(e logEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries[p.next] = e
	p.next = (p.next + 1) % len(p.entries)
	p.count = min(p.count+1, len(p.entries))
}

// recent returns up to n entries at or above level, newest first.
func (p *logPanel) recent(n int, level slog.Level) []logEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []logEntry
	for i := 0; i < p.count && len(out) < n; i++ {
		e := p.entries[(p.next-1-i+len(p.entries))%len(p.entries)]
		if e.Level >= level {
			out = append(out, e)
		}
	}
	return out
}

// logHandler is a slog.Handler writing into a logPanel.
type logHandler struct {
	panel  *logPanel
	level  slog.Leveler
	prefix string // group path, dot separated
	attrs  string // pre-rendered attributes from WithAttrs
}

func newLogHandler(panel *logPanel, level slog.Leveler) *logHandler {
	return &logHandler{panel: panel, level: level}
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *logHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Message)
	b.WriteString(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})

	h.panel.add(logEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: b.String(),
	})
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, h.prefix, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value)
}
