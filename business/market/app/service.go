package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/apm"
	"github.com/fd1az/silver-ai/internal/apperror"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/logger"
)

const (
	tracerName = "github.com/fd1az/silver-ai/business/market"
	meterName  = "github.com/fd1az/silver-ai/business/market"
)

// ServiceConfig holds the fixed market the service quotes.
type ServiceConfig struct {
	Region   string
	Currency *asset.Asset
}

// MarketService fronts the gateway: it traces and meters each call,
// anchors history to the fetched quote and stamps quotes with the session.
type MarketService struct {
	gateway Gateway
	config  ServiceConfig
	clock   func() time.Time
	logger  logger.LoggerInterface
	tracer  apm.Tracer

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMarketService creates a new MarketService.
func NewMarketService(gateway Gateway, cfg ServiceConfig, clock func() time.Time, log logger.LoggerInterface) *MarketService {
	if clock == nil {
		clock = time.Now
	}
	s := &MarketService{
		gateway: gateway,
		config:  cfg,
		clock:   clock,
		logger:  log,
		tracer:  apm.NewTracer(tracerName),
	}
	s.initMetrics()
	return s
}

func (s *MarketService) initMetrics() {
	meter := otel.Meter(meterName)

	// Instrument creation only fails on invalid names; the no-op fallback is fine.
	s.requests, _ = meter.Int64Counter("gateway_requests_total",
		metric.WithDescription("Market data gateway calls by operation and outcome"))
	s.duration, _ = meter.Float64Histogram("gateway_request_duration_ms",
		metric.WithDescription("Market data gateway call latency"),
		metric.WithUnit("ms"))
}

// Region returns the fixed region label.
func (s *MarketService) Region() string {
	return s.config.Region
}

// Currency returns the quote currency.
func (s *MarketService) Currency() *asset.Asset {
	return s.config.Currency
}

// Quote fetches the current price.
func (s *MarketService) Quote(ctx context.Context) (domain.Quote, error) {
	rate, err := observe(ctx, s, "current_price", func(ctx context.Context) (decimal.Decimal, error) {
		return s.gateway.CurrentPrice(ctx, s.config.Region)
	})
	if err != nil {
		return domain.Quote{}, err
	}
	if rate.IsNegative() {
		return domain.Quote{}, apperror.External(apperror.CodeGatewayUnparseableContent,
			"negative price "+rate.String(), nil)
	}

	now := s.clock()
	price := asset.NewPrice(asset.XAG, s.config.Currency, rate, now)
	return domain.NewQuote(s.config.Region, price, now), nil
}

// History fetches the daily series for q and anchors its last point to q.
func (s *MarketService) History(ctx context.Context, q domain.Quote) (domain.Series, error) {
	series, err := observe(ctx, s, "historical_series", func(ctx context.Context) (domain.Series, error) {
		return s.gateway.HistoricalSeries(ctx, q.Price.Rate(), q.Region)
	})
	if err != nil {
		return nil, err
	}

	if err := series.Validate(); err != nil {
		// Generated histories are plausible, not exact; render them anyway.
		s.logger.Warn(ctx, "history failed validation", "error", err, "points", len(series))
	}

	return series.Anchor(q.Price.Rate()), nil
}

// Forecast fetches the investment outlook for q and its history.
func (s *MarketService) Forecast(ctx context.Context, q domain.Quote, history domain.Series) (*domain.Forecast, error) {
	return observe(ctx, s, "forecast", func(ctx context.Context) (*domain.Forecast, error) {
		return s.gateway.Forecast(ctx, q.Price.Rate(), history)
	})
}

func observe[T any](ctx context.Context, s *MarketService, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "market."+op)
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)
	elapsed := float64(time.Since(start).Milliseconds())

	outcome := "ok"
	if err != nil {
		outcome = string(apperror.GetCode(err))
		span.NoticeError(err)
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	s.requests.Add(ctx, 1, attrs)
	s.duration.Record(ctx, elapsed, attrs)

	s.logger.Debug(ctx, "gateway call", "operation", op, "outcome", outcome, "duration_ms", elapsed)
	return result, err
}
