package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/internal/asset"
)

// Comparison renders the 7, 15 and 30 day changes.
type Comparison struct {
	Currency *asset.Asset
	Week     decimal.Decimal
	Fifteen  decimal.Decimal
	Month    decimal.Decimal
}

// View renders the comparison.
func (c Comparison) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))

	var sb strings.Builder
	sb.WriteString(header.Render("Historical Change"))
	sb.WriteString("\n\n")
	for _, row := range []struct {
		label string
		d     decimal.Decimal
	}{
		{"7 Days", c.Week},
		{"15 Days", c.Fifteen},
		{"30 Days", c.Month},
	} {
		sb.WriteString(fmt.Sprintf("  %-9s %s\n", row.label, Delta(c.Currency, row.d)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
