package cli

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	DoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	PendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Width(22)
)

// Check renders a done/not-done marker.
func Check(done bool) string {
	if done {
		return DoneStyle.Render("[x]")
	}
	return PendingStyle.Render("[ ]")
}
