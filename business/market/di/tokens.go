// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/silver-ai/business/market/app"
	"github.com/fd1az/silver-ai/business/market/infra/gemini"
	"github.com/fd1az/silver-ai/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.MarketService]("market.MarketService")
)

// Private dependency tokens - internal to market module
var (
	GeminiClient = di.NewToken[*gemini.Client]("market:geminiClient")
	Gateway      = di.NewToken[app.Gateway]("market:gateway")
)

// Helper functions for type-safe access
func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetGeminiClient(c di.ServiceRegistry) *gemini.Client {
	return di.GetToken(c, GeminiClient)
}

func GetGateway(c di.ServiceRegistry) app.Gateway {
	return di.GetToken(c, Gateway)
}
