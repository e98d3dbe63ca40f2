// Package components provides reusable TUI components.
package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the title, subtitle and refresh hint.
type Header struct {
	Subtitle string
	Busy     bool
}

// View renders the header.
func (h Header) View(width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F1F5F9")).Render("Silver Price ") +
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22D3EE")).Render("AI")
	subtitle := lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Render(h.Subtitle)

	button := lipgloss.NewStyle().Foreground(lipgloss.Color("#CBD5E1")).Render("[r] Refresh")
	if h.Busy {
		button = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Render("Refreshing...")
	}

	left := lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
	gap := width - lipgloss.Width(left) - lipgloss.Width(button)
	if gap < 2 {
		return lipgloss.JoinVertical(lipgloss.Left, left, button)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.NewStyle().Width(gap).Render(""), button)
}
