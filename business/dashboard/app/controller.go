package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	"github.com/fd1az/silver-ai/internal/apm"
	"github.com/fd1az/silver-ai/internal/apperror"
	"github.com/fd1az/silver-ai/internal/logger"
)

const (
	tracerName = "github.com/fd1az/silver-ai/business/dashboard"
	meterName  = "github.com/fd1az/silver-ai/business/dashboard"

	defaultFetchTimeout = 2 * time.Minute
)

// ErrRefreshInFlight is returned when a refresh is requested during a cycle.
var ErrRefreshInFlight = apperror.New(apperror.CodeRefreshInFlight)

// ControllerConfig holds controller settings.
type ControllerConfig struct {
	Currency     string
	FetchTimeout time.Duration
}

// Controller owns the view state and runs refresh cycles, one at a time.
type Controller struct {
	pipeline  pipeline
	region    string
	config    ControllerConfig
	reporters []Reporter
	clock     func() time.Time
	logger    logger.LoggerInterface
	tracer    apm.Tracer

	mu    sync.Mutex
	state domain.ViewState

	inFlight atomic.Bool
	wg       sync.WaitGroup

	cycles   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewController creates a new Controller.
func NewController(
	market Market,
	cfg ControllerConfig,
	clock func() time.Time,
	log logger.LoggerInterface,
	reporters ...Reporter,
) *Controller {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if clock == nil {
		clock = time.Now
	}

	c := &Controller{
		pipeline:  pipeline{market: market},
		region:    market.Region(),
		config:    cfg,
		reporters: reporters,
		clock:     clock,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
		state:     domain.NewViewState(),
	}
	c.initMetrics()
	return c
}

func (c *Controller) initMetrics() {
	meter := otel.Meter(meterName)

	c.cycles, _ = meter.Int64Counter("dashboard_cycles_total",
		metric.WithDescription("Refresh cycles by outcome"))
	c.duration, _ = meter.Float64Histogram("dashboard_cycle_duration_ms",
		metric.WithDescription("Refresh cycle latency"),
		metric.WithUnit("ms"))
}

// Start publishes the initial Loading frame and runs the first cycle in the background.
func (c *Controller) Start(ctx context.Context) error {
	c.publish(c.Frame())
	c.Trigger(ctx)
	return nil
}

// Refresh runs a cycle and waits for it. It returns ErrRefreshInFlight when
// a cycle is already running, or the cycle's underlying failure.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.recordCycle(ctx, "rejected", 0)
		return ErrRefreshInFlight
	}
	c.wg.Add(1)
	defer c.wg.Done()
	defer c.inFlight.Store(false)

	return c.runCycle(ctx)
}

// Trigger starts a cycle in the background and reports whether it did.
func (c *Controller) Trigger(ctx context.Context) bool {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.recordCycle(ctx, "rejected", 0)
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.inFlight.Store(false)
		_ = c.runCycle(ctx)
	}()
	return true
}

// Wait blocks until no cycle is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Busy reports whether a cycle is running.
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

// State returns the current view state.
func (c *Controller) State() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Frame returns the current view state as a frame resolved now.
func (c *Controller) Frame() domain.Frame {
	return domain.NewFrame(c.State(), c.region, c.config.Currency, c.clock())
}

func (c *Controller) runCycle(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.config.FetchTimeout)
	defer cancel()

	ctx, span := c.tracer.StartSpanFromContext(ctx, "dashboard.cycle")
	defer span.End()

	if err := c.apply(domain.RefreshStarted{}); err != nil {
		span.NoticeError(err)
		return err
	}
	span.SetAttributes(attribute.Int64("cycle", int64(c.State().Cycle)))

	q, err := c.pipeline.quoteStage(ctx)
	if err != nil {
		return c.fail(ctx, span, "quote", err, start)
	}

	ch, err := c.pipeline.seriesStage(ctx, q)
	if err != nil {
		return c.fail(ctx, span, "series", err, start)
	}
	if err := c.apply(domain.SeriesLoaded{Snapshot: ch.snapshot, Series: ch.series}); err != nil {
		return c.fail(ctx, span, "series", err, start)
	}

	forecast, err := c.pipeline.forecastStage(ctx, ch)
	if err != nil {
		return c.fail(ctx, span, "forecast", err, start)
	}
	if err := c.apply(domain.ForecastLoaded{Forecast: forecast}); err != nil {
		return c.fail(ctx, span, "forecast", err, start)
	}

	c.recordCycle(ctx, "ok", time.Since(start))
	c.logger.Info(ctx, "refresh cycle completed",
		"price", ch.quote.Price.String(),
		"points", len(ch.series),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Controller) fail(ctx context.Context, span apm.Span, stage string, err error, start time.Time) error {
	span.NoticeError(err)
	c.recordCycle(ctx, "error", time.Since(start))

	details := apperror.Wrap(err, apperror.CodeUnknownError, stage+" stage").ToLog()
	c.logger.Error(ctx, "refresh cycle failed",
		"stage", stage,
		"code", details["code"],
		"error", details)

	if aerr := c.apply(domain.CycleFailed{Message: domain.GenericFailureMessage}); aerr != nil {
		c.logger.Error(ctx, "failed to enter error state", "error", aerr)
	}
	return err
}

// apply transitions the state and publishes the resulting frame in order.
func (c *Controller) apply(e domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.state.Apply(e)
	if err != nil {
		return err
	}
	c.state = next

	c.publish(domain.NewFrame(next, c.region, c.config.Currency, c.clock()))
	return nil
}

func (c *Controller) publish(frame domain.Frame) {
	for _, r := range c.reporters {
		r.Publish(frame)
	}
}

func (c *Controller) recordCycle(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	c.cycles.Add(ctx, 1, attrs)
	if outcome != "rejected" {
		c.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}
}
