package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"wakatime/internal/agent"
)

// RunBootstrap shows the progress table on out while work runs in the
// background. work receives a reporter bound to the table; its error is
// shown under the table and returned.
func RunBootstrap(out io.Writer, work func(agent.Reporter) error) error {
	p := tea.NewProgram(NewBootstrapModel(), tea.WithOutput(out))

	go func() {
		err := work(NewProgramReporter(p.Send))
		p.Send(finishedMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(BootstrapModel); ok {
		return m.Err()
	}
	return nil
}
