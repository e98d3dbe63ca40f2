package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/pkg/ui/components"
)

// Render draws a frame at the given width. spin is shown while loading.
func Render(f domain.Frame, currency *asset.Asset, width int, spin string) string {
	if width <= 0 {
		width = 100
	}
	var b strings.Builder

	header := components.Header{Subtitle: f.Subtitle(), Busy: f.State.Busy()}
	b.WriteString(header.View(width - 2))
	b.WriteString("\n\n")

	switch f.State.Phase {
	case domain.PhaseLoading:
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			spin+" "+MutedValue.Render("Fetching silver prices...")))
		b.WriteString("\n")

	case domain.PhaseError:
		msg := lipgloss.NewStyle().Bold(true).Render("Error: ") + f.State.Message
		b.WriteString(ErrorBoxStyle.Width(width - 4).Render(msg))
		b.WriteString("\n")

	case domain.PhaseReady:
		b.WriteString(renderReady(f, currency, width, spin))
	}

	return b.String()
}

func renderReady(f domain.Frame, currency *asset.Asset, width int, spin string) string {
	snap := f.State.Snapshot
	if snap == nil {
		return ""
	}
	current := snap.Current

	price := components.PriceDisplay{
		Currency:    currency,
		Current:     &current,
		Change:      snap.Yesterday,
		ChangeLabel: string(f.Policy.ChangeLabel),
		HideChange:  f.Policy.SuppressChange,
		Freshness:   f.Policy.Freshness,
	}
	comparison := components.Comparison{
		Currency: currency,
		Week:     snap.Week,
		Fifteen:  snap.Fifteen,
		Month:    snap.Month,
	}

	points := make([]components.ChartPoint, 0, len(f.State.Series))
	for _, p := range f.State.Series {
		points = append(points, components.ChartPoint{Date: p.Time(), Value: p.Price.InexactFloat64()})
	}
	sign := ""
	if currency != nil {
		sign = currency.Sign()
	}

	panel := components.ForecastPanel{Currency: currency, Pending: f.State.ForecastPending()}
	if fc := f.State.Forecast; fc != nil {
		panel.Recommendation = fc.Recommendation
		panel.Tomorrow = fc.Tomorrow
		for _, h := range fc.Horizons() {
			panel.Horizons = append(panel.Horizons, components.HorizonRow{
				Label:   h.Label,
				Worst:   h.Scenario.WorstCase,
				Average: h.Scenario.AverageCase,
				Best:    h.Scenario.BestCase,
			})
		}
	}
	forecast := panel.View()
	if panel.Pending {
		forecast = strings.Replace(forecast, components.GeneratingAnalysis, spin+" "+components.GeneratingAnalysis, 1)
	}

	var b strings.Builder
	if width > 100 {
		half := width/2 - 2
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(half).Render(price.View()),
			BoxStyle.Width(half).Render(comparison.View()),
		))
		b.WriteString("\n")

		chartWidth := width*2/3 - 4
		chart := components.Chart{Points: points, Width: chartWidth - 14, Height: 12, Sign: sign}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			BoxStyle.Width(chartWidth).Render(chart.View()),
			AccentBoxStyle.Width(width-chartWidth-4).Render(forecast),
		))
	} else {
		inner := width - 4
		chart := components.Chart{Points: points, Width: max(inner-14, 20), Height: 10, Sign: sign}
		for _, block := range []string{price.View(), comparison.View(), chart.View()} {
			b.WriteString(BoxStyle.Width(inner).Render(block))
			b.WriteString("\n")
		}
		b.WriteString(AccentBoxStyle.Width(inner).Render(forecast))
	}
	b.WriteString("\n")
	return b.String()
}
