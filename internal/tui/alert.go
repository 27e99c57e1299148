package tui

import (
	"fmt"
	"io"
	"sync"
)

// AlertLevel selects the alert's colour.
type AlertLevel int

const (
	AlertError AlertLevel = iota
	AlertWarn
)

// RenderAlert draws a bordered message box.
func RenderAlert(level AlertLevel, title, message string) string {
	return alertBox.Render(alertTitles[level].Render(title) + "\n" + message)
}

// WriterAlerter prints alerts to a writer. Safe for concurrent use.
type WriterAlerter struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
}

// NewWriterAlerter renders boxed alerts when styled is set, plain lines
// otherwise.
func NewWriterAlerter(w io.Writer, styled bool) *WriterAlerter {
	return &WriterAlerter{w: w, styled: styled}
}

func (a *WriterAlerter) Error(title, message string) { a.write(AlertError, title, message) }

func (a *WriterAlerter) Warn(title, message string) { a.write(AlertWarn, title, message) }

func (a *WriterAlerter) write(level AlertLevel, title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.styled {
		fmt.Fprintln(a.w, RenderAlert(level, title, message))
		return
	}
	fmt.Fprintf(a.w, "%s: %s\n", title, message)
}
