package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Log prints reminders to Out and records them in the log. Bell rings the
// terminal bell before each printed reminder.
type Log struct {
	Out     io.Writer
	Logger  zerolog.Logger
	Enabled bool
	Bell    bool
	Now     func() time.Time
}

func (l Log) PermissionGranted() bool { return l.Enabled }

func (l Log) Show(title, body string) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	l.Logger.Info().Str("title", title).Msg(body)
	if l.Out != nil {
		if l.Bell {
			fmt.Fprint(l.Out, "\a")
		}
		fmt.Fprintf(l.Out, "%s  %s: %s\n", now().Format("2006-01-02 15:04"), title, body)
	}
}

type Notice struct {
	Title string
	Body  string
}

// Buffer keeps shown notices until they are drained, for callers that
// render them later (the TUI status line).
type Buffer struct {
	mu      sync.Mutex
	enabled bool
	pending []Notice
}

func NewBuffer(enabled bool) *Buffer {
	return &Buffer{enabled: enabled}
}

func (b *Buffer) PermissionGranted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *Buffer) SetEnabled(v bool) {
	b.mu.Lock()
	b.enabled = v
	b.mu.Unlock()
}

func (b *Buffer) Show(title, body string) {
	b.mu.Lock()
	b.pending = append(b.pending, Notice{Title: title, Body: body})
	b.mu.Unlock()
}

func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}
