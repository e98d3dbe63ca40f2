// Package app contains the dashboard controller, its fetch pipeline and port definitions.
package app

import (
	"context"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
)

// Market is the market data the dashboard displays.
// *marketApp.MarketService satisfies it.
type Market interface {
	Region() string
	Quote(ctx context.Context) (marketDomain.Quote, error)
	History(ctx context.Context, q marketDomain.Quote) (marketDomain.Series, error)
	Forecast(ctx context.Context, q marketDomain.Quote, history marketDomain.Series) (*marketDomain.Forecast, error)
}

// Reporter defines the interface for presenting dashboard frames.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Publish delivers a frame. It must not block the refresh cycle.
	Publish(frame domain.Frame)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
