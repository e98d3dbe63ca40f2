package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// NoChartData is shown when there are no points.
const NoChartData = "No chart data available."

// ChartPoint is one dated value.
type ChartPoint struct {
	Date  time.Time
	Value float64
}

// Chart renders the price history as an area-style line chart.
type Chart struct {
	Points []ChartPoint
	Width  int
	Height int
	Sign   string
}

// View renders the chart.
func (c Chart) View() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Render("30-Day Price Trend")
	if len(c.Points) == 0 {
		return header + "\n\n" + dimStyle.Render(NoChartData)
	}

	data := make([]float64, len(c.Points))
	lo, hi := c.Points[0].Value, c.Points[0].Value
	for i, p := range c.Points {
		data[i] = p.Value
		lo = min(lo, p.Value)
		hi = max(hi, p.Value)
	}
	if len(data) == 1 {
		data = append(data, data[0])
	}

	height := c.Height
	if height <= 0 {
		height = 10
	}
	width := c.Width
	if width <= 0 {
		width = 60
	}

	plot := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.LowerBound(lo*0.98),
		asciigraph.UpperBound(hi*1.02),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(asciigraph.DarkCyan),
		asciigraph.Caption("price per gram ("+c.Sign+")"),
	)

	return header + "\n\n" + plot + "\n" + c.axis(plot)
}

// axis lays the first and last dates under the plot area.
func (c Chart) axis(plot string) string {
	first := c.Points[0].Date.Format("Jan 2")
	last := c.Points[len(c.Points)-1].Date.Format("Jan 2")

	plotWidth := 0
	for _, line := range strings.Split(plot, "\n") {
		plotWidth = max(plotWidth, lipgloss.Width(line))
	}
	labelWidth := max(plotWidth-c.Width, 0)

	gap := plotWidth - labelWidth - len(first) - len(last)
	if gap < 1 {
		return dimStyle.Render(first + " - " + last)
	}
	return dimStyle.Render(strings.Repeat(" ", labelWidth) + first + strings.Repeat(" ", gap) + last)
}
