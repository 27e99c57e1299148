package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wakatime/internal/agent"
)

const (
	stepWidth   = 14
	statusWidth = 11
	detailWidth = 48
	colGap      = "  "
)

type stepRow struct {
	step   agent.Step
	status string
	detail string
}

func (r stepRow) settled() bool {
	switch r.status {
	case "pending", "checking", "installing":
		return false
	}
	return true
}

// BootstrapModel renders one row per bootstrap step with a spinner footer
// until the work finishes.
type BootstrapModel struct {
	title   string
	rows    []stepRow
	index   map[agent.Step]int
	spinner spinner.Model
	done    bool
	err     error
}

// NewBootstrapModel returns a model with every step pending.
func NewBootstrapModel() BootstrapModel {
	m := BootstrapModel{
		title:   "WakaTime",
		index:   make(map[agent.Step]int, len(agent.Steps)),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	for i, step := range agent.Steps {
		m.index[step] = i
		m.rows = append(m.rows, stepRow{step: step, status: "pending"})
	}
	return m
}

func (m BootstrapModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m BootstrapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepMsg:
		m.apply(msg.event)
		return m, nil
	case finishedMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *BootstrapModel) apply(e agent.Event) {
	i, ok := m.index[e.Step]
	if !ok {
		return
	}
	m.rows[i].status = StatusText(e)
	m.rows[i].detail = detailText(e)
}

func (m BootstrapModel) View() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(HeaderStyle.Render(pad("STEP", stepWidth) + colGap + pad("STATUS", statusWidth) + colGap + "DETAIL"))
	b.WriteByte('\n')

	for _, r := range m.rows {
		status := StatusStyle(r.status).Render(pad(r.status, statusWidth))
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			pad(string(r.step), stepWidth), colGap,
			status, colGap,
			TruncateWithEllipsis(r.detail, detailWidth))
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if !m.done {
		fmt.Fprintf(&b, "\n%s Bootstrapping %d/%d...\n", m.spinner.View(), m.settled(), len(m.rows))
	} else if m.err != nil {
		fmt.Fprintf(&b, "\nError: %v\n", m.err)
	}
	return b.String()
}

func (m BootstrapModel) settled() int {
	n := 0
	for _, r := range m.rows {
		if r.settled() {
			n++
		}
	}
	return n
}

// Done reports whether the program has finished or was interrupted.
func (m BootstrapModel) Done() bool { return m.done }

// Err returns the error bootstrap finished with.
func (m BootstrapModel) Err() error { return m.err }

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}

// TruncateWithEllipsis shortens value to max bytes, ending in "..." when
// there is room for it.
func TruncateWithEllipsis(value string, max int) string {
	if max <= 0 {
		return ""
	}
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
