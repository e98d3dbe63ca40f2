// Package market implements the market data bounded context: quotes, history and forecasts.
package market

import (
	"context"

	"github.com/fd1az/silver-ai/business/market/app"
	marketDI "github.com/fd1az/silver-ai/business/market/di"
	"github.com/fd1az/silver-ai/business/market/infra/gemini"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/config"
	"github.com/fd1az/silver-ai/internal/di"
	"github.com/fd1az/silver-ai/internal/logger"
	"github.com/fd1az/silver-ai/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Gemini client - private dependency
	di.RegisterToken(c, marketDI.GeminiClient, func(sr di.ServiceRegistry) *gemini.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := gemini.NewClient(gemini.ClientConfig{
			APIKey:          cfg.Gemini.APIKey,
			BaseURL:         cfg.Gemini.BaseURL,
			Timeout:         cfg.Gemini.RequestTimeout,
			BreakerFailures: cfg.Gemini.BreakerFailures,
			BreakerTimeout:  cfg.Gemini.BreakerTimeout,
			TraceBodies:     cfg.Gemini.TraceBodies,
			TraceBodyLimit:  cfg.Gemini.TraceBodyLimit,

			RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		}, log)
		if err != nil {
			panic("failed to create gemini client: " + err.Error())
		}
		return client
	})

	// Register Gateway (Gemini) - private dependency
	di.RegisterToken(c, marketDI.Gateway, func(sr di.ServiceRegistry) app.Gateway {
		cfg := sr.Get("config").(*config.Config)
		clock := sr.Get("clock").(monolith.Clock)

		return gemini.NewGateway(marketDI.GetGeminiClient(sr), gemini.GatewayConfig{
			PriceModel:    cfg.Gemini.PriceModel,
			ForecastModel: cfg.Gemini.ForecastModel,
			HistoryDays:   cfg.Dashboard.HistoryDays,
		}, clock)
	})

	// Register MarketService (public - exposed to other modules)
	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		clock := sr.Get("clock").(monolith.Clock)

		currency, ok := registry.Get(cfg.App.Currency)
		if !ok || !currency.IsFiat() {
			panic("unsupported app.currency: " + cfg.App.Currency)
		}

		return app.NewMarketService(marketDI.GetGateway(sr), app.ServiceConfig{
			Region:   cfg.App.Region,
			Currency: currency,
		}, clock, log)
	})

	return nil
}

// Startup initializes the market module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Resolve eagerly so a bad currency or key fails startup, not the first refresh.
	svc := marketDI.GetMarketService(mono.Services())

	if h := mono.Health(); h != nil {
		client := marketDI.GetGeminiClient(mono.Services())
		h.RegisterCheck("gateway", func(context.Context) (bool, string) {
			if client.BreakerOpen() {
				return false, "circuit breaker open"
			}
			return true, "ok"
		})
	}

	log.Info(ctx, "market module started",
		"region", svc.Region(),
		"currency", svc.Currency().Symbol())
	return nil
}
