// Package main is the entry point for the Silver Price AI dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/silver-ai/business/dashboard"
	dashboardDI "github.com/fd1az/silver-ai/business/dashboard/di"
	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/business/dashboard/infra"
	"github.com/fd1az/silver-ai/business/market"
	"github.com/fd1az/silver-ai/internal/apm"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/config"
	"github.com/fd1az/silver-ai/internal/health"
	"github.com/fd1az/silver-ai/internal/logger"
	"github.com/fd1az/silver-ai/internal/metrics"
	"github.com/fd1az/silver-ai/internal/monolith"
	"github.com/fd1az/silver-ai/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// errCycleFailed is returned by a one-shot CLI run whose refresh failed.
var errCycleFailed = errors.New("refresh failed")

type options struct {
	configPath string
	tuiMode    bool
	format     string
	followURL  string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	format := flag.String("format", "", "Console output format: text or yaml")
	followURL := flag.String("follow", "", "Mirror a remote state feed (ws://host:port/api/stream)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("silver-ai %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	opts := options{
		configPath: *configPath,
		// TUI is the default, CLI is for debugging and scripting
		tuiMode:   !*cliMode && *followURL == "",
		format:    *format,
		followURL: *followURL,
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !opts.tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	runner := run
	if opts.followURL != "" {
		runner = runFollow
	}
	if err := runner(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set runtime settings in config so modules know
	cfg.App.TUIMode = opts.tuiMode
	if opts.format != "" {
		cfg.App.Format = opts.format
	}
	if _, err := infra.ParseFormat(cfg.App.Format); err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, opts.tuiMode)
	if err != nil {
		return err
	}
	defer closeLog()

	log.Info(ctx, "starting Silver Price AI",
		"version", version,
		"environment", cfg.App.Environment,
		"region", cfg.App.Region,
	)

	// Initialize observability if enabled
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := setupTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer shutdownTelemetry()
	}

	monoOpts := []monolith.Option{}
	if cfg.Health.Enabled {
		healthServer := health.NewServer(cfg.Health.Port, version)
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "port", cfg.Health.Port)
			defer healthServer.Stop(context.Background())
			monoOpts = append(monoOpts, monolith.WithHealth(healthServer))
		}
	}

	// Cycles run on ctx; cancel it before Close waits for them.
	ctx, stop := context.WithCancel(ctx)

	// Create monolith (application container)
	mono := monolith.New(cfg, log, monoOpts...)
	defer func() {
		stop()
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown error", "error", err)
		}
	}()

	// Define modules in dependency order
	modules := []monolith.Module{
		&market.Module{},    // Gemini gateway and market service
		&dashboard.Module{}, // Depends on market
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if opts.tuiMode {
		// TUI mode: Start modules after the welcome screen so it shows immediately
		startFunc := func() error {
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			return nil
		}
		return runTUI(ctx, mono.AssetRegistry(), startFunc)
	}

	// CLI mode: Start modules synchronously
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	return runCLI(ctx, cfg, mono, log)
}

func runCLI(ctx context.Context, cfg *config.Config, mono monolith.Monolith, log logger.LoggerInterface) error {
	ctrl := dashboardDI.GetController(mono.Services())

	// Without a schedule or feed the CLI is one-shot: wait for the first cycle.
	if cfg.Dashboard.AutoRefresh == "" && !cfg.Feed.Enabled {
		ctrl.Wait()
		if ctrl.State().Phase == domain.PhaseError {
			return errCycleFailed
		}
		return nil
	}

	log.Info(ctx, "all modules started, waiting for shutdown")
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}

func runTUI(ctx context.Context, registry *asset.Registry, startFunc func() error) error {
	// Channel to receive the welcome-complete signal
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// Create and start the TUI program IMMEDIATELY (shows welcome screen)
	p := tea.NewProgram(ui.New(registry), tea.WithAltScreen(), tea.WithContext(ctx))
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		// Wait for welcome screen to complete
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		// The first frame reaches the TUI from the dashboard module.
		if err := startFunc(); err != nil {
			errCh <- err
			p.Quit()
			return
		}
		errCh <- nil
	}()

	// Run TUI (blocking) - shows immediately with welcome screen
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// runFollow mirrors a remote feed to the console until interrupted.
func runFollow(ctx context.Context, opts options) error {
	// Follow mode has no API key, so configuration is read but not validated.
	cfg, err := config.Read(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.format != "" {
		cfg.App.Format = opts.format
	}
	format, err := infra.ParseFormat(cfg.App.Format)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	reporter := infra.NewConsoleReporter(format, asset.DefaultRegistry())
	follower, err := infra.NewFollower(opts.followURL, reporter, log)
	if err != nil {
		return err
	}

	log.Info(ctx, "following state feed", "url", opts.followURL)
	if err := follower.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("follow %s: %w", opts.followURL, err)
	}
	return nil
}

// newLogger writes to stderr in CLI mode. In TUI mode the terminal belongs
// to the UI, so logs go to app.log_file or are discarded.
func newLogger(cfg *config.Config, tuiMode bool) (*logger.Logger, func(), error) {
	level := logger.ParseLevel(cfg.App.LogLevel)

	if !tuiMode {
		return logger.New(os.Stderr, level, cfg.App.Name, nil), func() {}, nil
	}
	if cfg.App.LogFile == "" {
		return logger.New(io.Discard, level, cfg.App.Name, nil), func() {}, nil
	}

	f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(f, level, cfg.App.Name, nil), func() { _ = f.Close() }, nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	tc := cfg.Telemetry

	traceProvider, err := apm.NewTraceProvider(ctx, log, apm.Config{
		Provider:    apm.Provider(tc.TraceProvider),
		ServiceName: tc.ServiceName,
		Endpoint:    tc.OTLPEndpoint,
		Headers:     tc.OTLPHeaderMap(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", tc.TraceProvider, "endpoint", tc.OTLPEndpoint)

	metricCfg := metrics.ProviderCfg{Provider: metrics.PrometheusProvider}
	if tc.MetricsProvider == string(metrics.OtelCollector) {
		metricCfg = metrics.NewOtelCollectorConfig(tc.OTLPEndpoint, tc.OTLPHeaderMap(), false)
	}
	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(tc.ServiceName),
		metrics.WithProviderConfig(metricCfg),
	)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	var promServer *metrics.PromServer
	if metricCfg.Provider == metrics.PrometheusProvider {
		port := tc.PrometheusPort
		if port == 0 {
			port = 9090
		}
		promServer = metrics.NewPromServer(metrics.WithPort(strconv.Itoa(port)))
		if err := promServer.Start(); err != nil {
			log.Warn(ctx, "failed to start prometheus server", "error", err)
			promServer = nil
		} else {
			log.Info(ctx, "prometheus metrics server started", "addr", promServer.Addr())
		}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if promServer != nil {
			_ = promServer.Stop(shutdownCtx)
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "metrics shutdown failed", "error", err)
		}
		if err := traceProvider.Stop(); err != nil {
			log.Warn(shutdownCtx, "trace shutdown failed", "error", err)
		}
	}, nil
}
