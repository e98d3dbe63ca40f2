package gemini

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/business/market/domain"
)

// GatewayConfig selects models and the history window.
type GatewayConfig struct {
	PriceModel    string
	ForecastModel string
	HistoryDays   int
}

// Gateway implements app.Gateway with grounded search for the price and
// schema-constrained JSON for history and forecast.
type Gateway struct {
	client *Client
	config GatewayConfig
	clock  func() time.Time
}

// NewGateway creates a gateway. clock decides the weekend wording and the
// history date range.
func NewGateway(client *Client, cfg GatewayConfig, clock func() time.Time) *Gateway {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 30
	}
	if clock == nil {
		clock = time.Now
	}
	return &Gateway{client: client, config: cfg, clock: clock}
}

// BreakerOpen reports whether the underlying circuit breaker is open.
func (g *Gateway) BreakerOpen() bool {
	return g.client.BreakerOpen()
}

func (g *Gateway) CurrentPrice(ctx context.Context, region string) (decimal.Decimal, error) {
	req := &GenerateRequest{
		Contents: userText(pricePrompt(region, g.clock())),
		Tools:    []Tool{{GoogleSearch: &struct{}{}}},
	}

	resp, err := g.client.Generate(ctx, g.config.PriceModel, req)
	if err != nil {
		return decimal.Zero, err
	}
	return parsePrice(resp.Text())
}

func (g *Gateway) HistoricalSeries(ctx context.Context, current decimal.Decimal, region string) (domain.Series, error) {
	req := &GenerateRequest{
		Contents: userText(historyPrompt(region, current, g.clock(), g.config.HistoryDays)),
		GenerationConfig: &GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   historySchema(),
		},
	}

	resp, err := g.client.Generate(ctx, g.config.PriceModel, req)
	if err != nil {
		return nil, err
	}
	return parseSeries(resp.Text())
}

func (g *Gateway) Forecast(ctx context.Context, current decimal.Decimal, history domain.Series) (*domain.Forecast, error) {
	req := &GenerateRequest{
		Contents: userText(forecastPrompt(current, history, g.config.HistoryDays)),
		GenerationConfig: &GenerationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   forecastSchema(),
		},
	}

	resp, err := g.client.Generate(ctx, g.config.ForecastModel, req)
	if err != nil {
		return nil, err
	}
	return parseForecast(resp.Text())
}

func userText(text string) []Content {
	return []Content{{Role: "user", Parts: []Part{{Text: text}}}}
}
