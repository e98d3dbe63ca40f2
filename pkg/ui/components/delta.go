package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/internal/asset"
)

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")).Bold(true)
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
)

// Arrow returns ▲ for zero or positive deltas and ▼ otherwise.
func Arrow(d decimal.Decimal) string {
	if d.IsNegative() {
		return "▼"
	}
	return "▲"
}

// Delta renders an arrow and the absolute amount, coloured by sign.
func Delta(currency *asset.Asset, d decimal.Decimal) string {
	style := upStyle
	if d.IsNegative() {
		style = downStyle
	}
	return style.Render(Arrow(d) + " " + asset.FormatAbs(currency, d))
}
