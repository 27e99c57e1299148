package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"wakatime/internal/agent"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		event agent.Event
		want  string
	}{
		{agent.Event{Step: agent.StepInterpreter, State: agent.StateRunning}, "checking"},
		{agent.Event{Step: agent.StepInterpreter, State: agent.StateRunning, Detail: "installing"}, "installing"},
		{agent.Event{Step: agent.StepInterpreter, State: agent.StateDone, Detail: "python"}, "found"},
		{agent.Event{Step: agent.StepInterpreter, State: agent.StateFailed}, "missing"},
		{agent.Event{Step: agent.StepTool, State: agent.StateDone, Detail: "upgraded"}, "upgraded"},
		{agent.Event{Step: agent.StepTool, State: agent.StateFailed}, "failed"},
	}
	for _, tt := range tests {
		if got := StatusText(tt.event); got != tt.want {
			t.Errorf("StatusText(%+v) = %q, want %q", tt.event, got, tt.want)
		}
	}
}

func TestProgramReporterUpdatesRows(t *testing.T) {
	m := NewBootstrapModel()
	var msgs []tea.Msg
	r := NewProgramReporter(func(msg tea.Msg) { msgs = append(msgs, msg) })

	r.Report(agent.Event{Step: agent.StepInterpreter, State: agent.StateDone, Detail: "/usr/bin/python3"})
	r.Report(agent.Event{Step: agent.StepTool, State: agent.StateFailed, Err: errors.New("download failed")})

	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(BootstrapModel)
	}
	if m.rows[0].status != "found" || m.rows[0].detail != "/usr/bin/python3" {
		t.Fatalf("unexpected interpreter row %+v", m.rows[0])
	}
	if m.rows[1].status != "failed" || m.rows[1].detail != "download failed" {
		t.Fatalf("unexpected tool row %+v", m.rows[1])
	}
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf)
	r.Report(agent.Event{Step: agent.StepTool, State: agent.StateDone, Detail: "up-to-date"})

	if !strings.Contains(buf.String(), "wakatime-cli") || !strings.Contains(buf.String(), "up-to-date") {
		t.Fatalf("unexpected line %q", buf.String())
	}
}

func TestWriterAlerterPlain(t *testing.T) {
	var buf bytes.Buffer
	a := NewWriterAlerter(&buf, false)
	a.Error("Error", "WakaTime requires Python to be installed.")
	if buf.String() != "Error: WakaTime requires Python to be installed.\n" {
		t.Fatalf("unexpected alert %q", buf.String())
	}
}

func TestRenderAlertContainsMessage(t *testing.T) {
	out := RenderAlert(AlertWarn, "Debug", "Running WakaTime in DEBUG mode.")
	if !strings.Contains(out, "Debug") || !strings.Contains(out, "DEBUG mode") {
		t.Fatalf("unexpected alert %q", out)
	}
}
