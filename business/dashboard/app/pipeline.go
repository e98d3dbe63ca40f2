package app

import (
	"context"

	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
)

// Each stage consumes only what the previous one produced, so the order
// quote, series, forecast cannot be rearranged.

type quoted struct {
	quote marketDomain.Quote
}

type charted struct {
	quote    marketDomain.Quote
	series   marketDomain.Series
	snapshot marketDomain.PriceSnapshot
}

type pipeline struct {
	market Market
}

func (p pipeline) quoteStage(ctx context.Context) (quoted, error) {
	q, err := p.market.Quote(ctx)
	if err != nil {
		return quoted{}, err
	}
	return quoted{quote: q}, nil
}

func (p pipeline) seriesStage(ctx context.Context, in quoted) (charted, error) {
	series, err := p.market.History(ctx, in.quote)
	if err != nil {
		return charted{}, err
	}
	return charted{
		quote:    in.quote,
		series:   series,
		snapshot: marketDomain.Compute(in.quote.Price.Rate(), series),
	}, nil
}

func (p pipeline) forecastStage(ctx context.Context, in charted) (*marketDomain.Forecast, error) {
	return p.market.Forecast(ctx, in.quote, in.series)
}
