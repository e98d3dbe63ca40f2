// Package app contains application services and port definitions for the market context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/business/market/domain"
)

// Gateway is the external market data source. Every method is a single
// attempt; failures are apperror gateway errors.
type Gateway interface {
	// CurrentPrice returns the price of one gram of silver in the region's
	// currency. On weekends it asks for the previous Friday's close.
	CurrentPrice(ctx context.Context, region string) (decimal.Decimal, error)

	// HistoricalSeries returns roughly a month of daily prices ending today.
	// The final point is not guaranteed to equal current.
	HistoricalSeries(ctx context.Context, current decimal.Decimal, region string) (domain.Series, error)

	// Forecast returns an investment outlook derived from the price and its history.
	Forecast(ctx context.Context, current decimal.Decimal, history domain.Series) (*domain.Forecast, error)
}
