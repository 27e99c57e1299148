package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[string]lipgloss.Style{
		"found":      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"installed":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"upgraded":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"up-to-date": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		"checking":   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"installing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		"outdated": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"missing":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		"error":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		"pending": lipgloss.NewStyle().Faint(true),
	}

	alertBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	alertTitles = map[AlertLevel]lipgloss.Style{
		AlertError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		AlertWarn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
