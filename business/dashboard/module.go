// Package dashboard implements the dashboard bounded context: refresh cycles,
// view state and the publishers that render it.
package dashboard

import (
	"context"
	"fmt"

	"github.com/fd1az/silver-ai/business/dashboard/app"
	dashboardDI "github.com/fd1az/silver-ai/business/dashboard/di"
	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/business/dashboard/infra"
	marketDI "github.com/fd1az/silver-ai/business/market/di"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/config"
	"github.com/fd1az/silver-ai/internal/di"
	"github.com/fd1az/silver-ai/internal/logger"
	"github.com/fd1az/silver-ai/internal/monolith"
	"github.com/fd1az/silver-ai/pkg/ui"
)

// Module implements the dashboard bounded context.
type Module struct{}

// RegisterServices registers all dashboard services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register state feed - private, nil when disabled
	di.RegisterToken(c, dashboardDI.Feed, func(sr di.ServiceRegistry) *infra.Feed {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Feed.Enabled {
			return nil
		}
		log := sr.Get("logger").(logger.LoggerInterface)

		return infra.NewFeed(infra.FeedConfig{
			Port:         cfg.Feed.Port,
			AllowOrigins: cfg.Feed.AllowOrigins,
		}, log)
	})

	// Register reporters based on mode - private dependency
	di.RegisterToken(c, dashboardDI.Reporters, func(sr di.ServiceRegistry) []app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		var reporters []app.Reporter
		if cfg.App.TUIMode {
			reporters = append(reporters, infra.NewTUIReporter())
		} else {
			format, err := infra.ParseFormat(cfg.App.Format)
			if err != nil {
				panic("failed to create console reporter: " + err.Error())
			}
			reporters = append(reporters, infra.NewConsoleReporter(format, registry))
		}

		if feed := dashboardDI.GetFeed(sr); feed != nil {
			reporters = append(reporters, feed)
		}
		return reporters
	})

	// Register Controller (public - exposed to other modules)
	di.RegisterToken(c, dashboardDI.Controller, func(sr di.ServiceRegistry) *app.Controller {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		clock := sr.Get("clock").(monolith.Clock)

		return app.NewController(
			marketDI.GetMarketService(sr),
			app.ControllerConfig{
				Currency:     cfg.App.Currency,
				FetchTimeout: cfg.Dashboard.FetchTimeout,
			},
			clock,
			log,
			dashboardDI.GetReporters(sr)...,
		)
	})

	return nil
}

// Startup starts the publishers, runs the first cycle and schedules the rest.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	sr := mono.Services()

	ctrl := dashboardDI.GetController(sr)

	for _, r := range dashboardDI.GetReporters(sr) {
		if err := r.Start(ctx); err != nil {
			return fmt.Errorf("start reporter: %w", err)
		}
		mono.OnClose(r.Stop)
	}

	// Runs before the reporters stop so the last frame still reaches them.
	mono.OnClose(func() error {
		ctrl.Wait()
		return nil
	})

	if h := mono.Health(); h != nil {
		h.RegisterCheck("dashboard", func(context.Context) (bool, string) {
			state := ctrl.State()
			if state.Phase == domain.PhaseError {
				return false, state.Message
			}
			return true, string(state.Phase)
		})
	}

	if cfg.App.TUIMode {
		ui.OnRefresh = func() bool { return ctrl.Trigger(ctx) }
	}

	if err := ctrl.Start(ctx); err != nil {
		return err
	}

	if spec := cfg.Dashboard.AutoRefresh; spec != "" {
		sched, err := app.NewScheduler(ctx, spec, ctrl, log)
		if err != nil {
			return err
		}
		sched.Start()
		mono.OnClose(func() error {
			sched.Stop()
			return nil
		})
	}

	log.Info(ctx, "dashboard module started",
		"tui", cfg.App.TUIMode,
		"feed", cfg.Feed.Enabled,
		"auto_refresh", cfg.Dashboard.AutoRefresh)
	return nil
}
