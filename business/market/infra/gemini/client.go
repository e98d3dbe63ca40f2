// Package gemini implements the market data gateway on the Gemini generateContent API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/silver-ai/internal/apperror"
	"github.com/fd1az/silver-ai/internal/circuitbreaker"
	"github.com/fd1az/silver-ai/internal/httpclient"
	"github.com/fd1az/silver-ai/internal/logger"
	"github.com/fd1az/silver-ai/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/silver-ai/business/market/infra/gemini"

	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	apiKeyHeader   = "x-goog-api-key"
	defaultTimeout = 90 * time.Second
)

// ClientConfig holds connection settings for the Gemini API.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// RequestsPerMinute caps calls to the API quota; zero disables it.
	RequestsPerMinute int

	// TraceBodies records prompts and answers on spans, up to TraceBodyLimit bytes.
	TraceBodies    bool
	TraceBodyLimit int
}

// Client calls generateContent through an instrumented HTTP client and a
// circuit breaker. It never retries.
type Client struct {
	http    httpclient.Client
	breaker *circuitbreaker.CircuitBreaker[*GenerateResponse]
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer

	traceHeaders bool
}

// NewClient creates a new Gemini client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperror.Validation(apperror.CodeConfigurationError, "gemini api key is empty")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	tracer := otel.Tracer(tracerName)

	traceOpts := []httpclient.TraceOption{}
	if cfg.TraceBodies {
		traceOpts = append(traceOpts, httpclient.TraceRequest, httpclient.TraceResponse)
	}

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("gemini"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, traceOpts...),
		httpclient.WithMaxBodyLog(cfg.TraceBodyLimit),
		httpclient.WithHeaders(map[string]string{
			"Accept":     "application/json",
			apiKeyHeader: cfg.APIKey,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	breakerCfg := circuitbreaker.DefaultConfig("gemini")
	if cfg.BreakerFailures > 0 {
		breakerCfg.ConsecutiveFailures = cfg.BreakerFailures
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	c := &Client{
		http:    client,
		breaker: circuitbreaker.New[*GenerateResponse](breakerCfg),
		logger:  log,
		tracer:  tracer,

		traceHeaders: cfg.TraceBodies,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = ratelimit.New(cfg.RequestsPerMinute)
	}
	return c, nil
}

// BreakerOpen reports whether calls are currently being rejected.
func (c *Client) BreakerOpen() bool {
	return c.breaker.IsOpen()
}

// Generate sends req to model and returns a response with at least one
// non-empty candidate.
func (c *Client) Generate(ctx context.Context, model string, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, span := c.tracer.Start(ctx, "gemini.generate_content",
		trace.WithAttributes(attribute.String("model", model)),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			err = apperror.External(apperror.CodeGatewayRequestFailed, "rate limit wait", err)
			span.RecordError(err)
			return nil, err
		}
	}

	resp, err := c.breaker.Execute(func() (*GenerateResponse, error) {
		return c.generate(ctx, model, req)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("candidates", len(resp.Candidates)),
		attribute.String("finish_reason", resp.Candidates[0].FinishReason),
	)
	return resp, nil
}

func (c *Client) generate(ctx context.Context, model string, req *GenerateRequest) (*GenerateResponse, error) {
	var result GenerateResponse
	_, err := c.http.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "generateContent"),
			httpclient.NewLabel("model", model),
		),
		httpclient.WithResponseErrorHandler(geminiErrorHandler),
		httpclient.WithHeadersLogConfig(c.traceHeaders, apiKeyHeader),
	).
		SetBody(req).
		SetResult(&result).
		Post(ctx, generatePath(model))

	if err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr):
			return nil, apperror.External(apperror.CodeGatewayRequestFailed,
				fmt.Sprintf("model %s returned HTTP %d", model, apiErr.HTTPStatus), apiErr)
		case errors.Is(err, httpclient.ErrDecodeResult):
			return nil, apperror.External(apperror.CodeGatewayMalformedResponse,
				fmt.Sprintf("model %s response body", model), err)
		default:
			return nil, apperror.External(apperror.CodeGatewayRequestFailed,
				fmt.Sprintf("model %s request", model), err)
		}
	}

	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, apperror.External(apperror.CodeGatewayBlocked,
			fmt.Sprintf("model %s blocked prompt: %s", model, fb.BlockReason), nil)
	}
	if result.Text() == "" {
		reason := ""
		if len(result.Candidates) > 0 {
			reason = result.Candidates[0].FinishReason
		}
		return nil, apperror.External(apperror.CodeGatewayMalformedResponse,
			fmt.Sprintf("model %s returned no text (finish reason %q)", model, reason), nil)
	}

	c.logger.Debug(ctx, "gemini response",
		"model", model,
		"model_version", result.ModelVersion,
		"candidates", len(result.Candidates))

	return &result, nil
}

func generatePath(model string) string {
	return "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

// geminiErrorHandler decodes Google API error bodies.
func geminiErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var env apiErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		env.Error.HTTPStatus = statusCode
		return env.Error
	}
	return &APIError{HTTPStatus: statusCode, Code: statusCode, Message: clip(string(body))}
}
