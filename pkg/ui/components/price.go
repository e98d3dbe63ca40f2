package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/internal/asset"
)

// PriceDisplay renders the current price and the daily change.
type PriceDisplay struct {
	Currency *asset.Asset
	// Current is nil when no price is known.
	Current     *decimal.Decimal
	Change      decimal.Decimal
	ChangeLabel string
	HideChange  bool
	Freshness   string
}

// View renders the price display.
func (p PriceDisplay) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	priceStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))

	price := asset.NotAvailable
	if p.Current != nil {
		price = asset.Format(p.Currency, *p.Current)
	}

	line := priceStyle.Render(price)
	if !p.HideChange {
		change := dimStyle.Render("--.--")
		if p.Current != nil && p.Currency != nil {
			change = Delta(p.Currency, p.Change)
		}
		line += "   " + change + " " + labelStyle.Render(p.ChangeLabel)
	}

	var sb strings.Builder
	sb.WriteString(labelStyle.Render("Current Price (1 gram)"))
	sb.WriteString("\n\n")
	sb.WriteString(line)
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render(p.Freshness))
	return sb.String()
}
