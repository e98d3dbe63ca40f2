// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"time"

	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/config"
	"github.com/fd1az/silver-ai/internal/di"
	"github.com/fd1az/silver-ai/internal/health"
	"github.com/fd1az/silver-ai/internal/logger"
)

// Clock returns the current time. Modules take it from the monolith so
// tests can pin the calendar day.
type Clock func() time.Time

// Monolith is the application container shared by modules.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry
	Clock() Clock
	// Health is nil when the health server is disabled.
	Health() *health.Server
	// OnClose registers cleanup run when the application shuts down.
	OnClose(fn func() error)
}

// Module is a bounded context that registers services and then starts.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	assetRegistry *asset.Registry
	container     di.Container
	clock         Clock
	health        *health.Server
	closers       []func() error
}

// Option customizes the monolith.
type Option func(*app)

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(a *app) { a.clock = c }
}

// WithHealth attaches the health server so modules can register checks.
func WithHealth(h *health.Server) Option {
	return func(a *app) { a.health = h }
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface, opts ...Option) *app {
	a := &app{
		config:        cfg,
		logger:        log,
		assetRegistry: asset.DefaultRegistry(),
		container:     di.NewContainer(),
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.container.Register("config", cfg)
	a.container.Register("logger", log)
	a.container.Register("assetRegistry", a.assetRegistry)
	a.container.Register("clock", a.clock)

	return a
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) Clock() Clock {
	return a.clock
}

func (a *app) Health() *health.Server {
	return a.health
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// OnClose registers fn to run on Close, in reverse order.
func (a *app) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs registered closers and returns the first error.
func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
