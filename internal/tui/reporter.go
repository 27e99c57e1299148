package tui

import (
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"wakatime/internal/agent"
)

// StatusText maps a bootstrap event to the word shown in the STATUS column.
func StatusText(e agent.Event) string {
	switch e.State {
	case agent.StateRunning:
		if e.Detail == "installing" {
			return "installing"
		}
		return "checking"
	case agent.StateFailed:
		if e.Step == agent.StepInterpreter {
			return "missing"
		}
		return "failed"
	case agent.StateDone:
		if e.Step == agent.StepInterpreter {
			return "found"
		}
		return NonEmptyOrDash(e.Detail)
	}
	return string(e.State)
}

func detailText(e agent.Event) string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Step == agent.StepInterpreter && e.State == agent.StateDone {
		return e.Detail
	}
	return ""
}

// ProgramReporter forwards bootstrap events to a running bubbletea program.
type ProgramReporter struct {
	send func(tea.Msg)
}

// NewProgramReporter wraps a send callback such as tea.Program.Send.
func NewProgramReporter(send func(tea.Msg)) *ProgramReporter {
	return &ProgramReporter{send: send}
}

// Report implements agent.Reporter.
func (r *ProgramReporter) Report(e agent.Event) {
	r.send(stepMsg{event: e})
}

// LineReporter writes one line per bootstrap event.
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineReporter returns a reporter for non-interactive output.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Report implements agent.Reporter.
func (r *LineReporter) Report(e agent.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := fmt.Sprintf("%-14s %s", e.Step, StatusText(e))
	if detail := detailText(e); detail != "" {
		line += "  " + detail
	}
	fmt.Fprintln(r.w, line)
}
