package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/internal/asset"
)

const (
	GeneratingAnalysis = "Generating AI analysis..."
	Disclaimer         = "Disclaimer: This is an AI-generated forecast and not financial advice."
)

// HorizonRow is one projected range.
type HorizonRow struct {
	Label   string
	Worst   decimal.Decimal
	Average decimal.Decimal
	Best    decimal.Decimal
}

// ForecastPanel renders the investment analysis.
type ForecastPanel struct {
	Currency       *asset.Asset
	Pending        bool
	Recommendation string
	Tomorrow       string
	Horizons       []HorizonRow
}

// View renders the panel.
func (f ForecastPanel) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA")).Render("✦ AI Investment Analysis")
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C4B5FD"))

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")

	if f.Pending {
		sb.WriteString(label.Render(GeneratingAnalysis))
		return sb.String()
	}

	sb.WriteString(label.Render("Today's Outlook"))
	sb.WriteString("\n")
	sb.WriteString(accent.Render(f.Recommendation))
	sb.WriteString("\n\n")
	sb.WriteString(label.Render("Tomorrow's Forecast"))
	sb.WriteString("\n")
	sb.WriteString(f.Tomorrow)
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-18s %12s %12s %12s\n", "",
		downStyle.Render(fmt.Sprintf("%12s", "Worst")),
		label.Render(fmt.Sprintf("%12s", "Average")),
		upStyle.Render(fmt.Sprintf("%12s", "Best"))))
	for _, h := range f.Horizons {
		sb.WriteString(fmt.Sprintf("  %-18s %12s %12s %12s\n",
			h.Label+" Horizon",
			asset.Format(f.Currency, h.Worst),
			asset.Format(f.Currency, h.Average),
			asset.Format(f.Currency, h.Best)))
	}

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(Disclaimer))
	return sb.String()
}
