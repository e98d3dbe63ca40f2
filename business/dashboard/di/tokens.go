// Package di contains dependency injection tokens for the dashboard context.
package di

import (
	"github.com/fd1az/silver-ai/business/dashboard/app"
	"github.com/fd1az/silver-ai/business/dashboard/infra"
	"github.com/fd1az/silver-ai/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Controller = di.NewToken[*app.Controller]("dashboard.Controller")
)

// Private dependency tokens - internal to dashboard module
var (
	Reporters = di.NewToken[[]app.Reporter]("dashboard:reporters")
	// Feed is nil when the state feed is disabled.
	Feed = di.NewToken[*infra.Feed]("dashboard:feed")
)

// Helper functions for type-safe access
func GetController(c di.ServiceRegistry) *app.Controller {
	return di.GetToken(c, Controller)
}

func GetReporters(c di.ServiceRegistry) []app.Reporter {
	return di.GetToken(c, Reporters)
}

func GetFeed(c di.ServiceRegistry) *infra.Feed {
	return di.GetToken(c, Feed)
}
