package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff"))

	// zero entries are dimmed so the sparsity pattern stands out
	Zero = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#444466"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899")).
		Width(12)

	Pass = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ff88"))

	Fail = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ff4444"))
)

// Status renders a pass/fail marker.
func Status(ok bool) string {
	if ok {
		return Pass.Render("PASS")
	}
	return Fail.Render("FAIL")
}

// Separator draws a muted rule of the given width.
func Separator(width int) string {
	if width < 7 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return Subtle.Render(left + " ◆ " + right)
}
