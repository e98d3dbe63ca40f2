// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SILVER"

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Health    HealthConfig    `mapstructure:"health"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	// LogFile receives logs in TUI mode, where stderr is owned by the terminal UI.
	LogFile  string `mapstructure:"log_file"`
	TUIMode  bool   `mapstructure:"-"` // set at runtime
	Region   string `mapstructure:"region"`
	Currency string `mapstructure:"currency"`
	// Format is the console output encoding: text or yaml.
	Format string `mapstructure:"format"`
}

// GeminiConfig holds the generative API settings.
type GeminiConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	PriceModel     string        `mapstructure:"price_model"`
	ForecastModel  string        `mapstructure:"forecast_model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// BreakerFailures is the consecutive failure count that opens the breaker.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	// RequestsPerMinute throttles calls below the API quota; 0 disables it.
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	TraceBodies       bool `mapstructure:"trace_bodies"`
	// TraceBodyLimit caps recorded prompt and answer bytes when TraceBodies is on.
	TraceBodyLimit int `mapstructure:"trace_body_limit"`
}

// DashboardConfig holds refresh-cycle settings.
type DashboardConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// AutoRefresh is a cron spec with a seconds field; empty disables it.
	AutoRefresh string `mapstructure:"auto_refresh"`
	HistoryDays int    `mapstructure:"history_days"`
}

// FeedConfig holds the state feed server settings.
type FeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
	// AllowOrigins lists websocket origin patterns; empty accepts any origin.
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	ServiceName     string `mapstructure:"service_name"`
	TraceProvider   string `mapstructure:"trace_provider"`
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string `mapstructure:"otlp_headers"`
	MetricsProvider string `mapstructure:"metrics_provider"`
	PrometheusPort  int    `mapstructure:"prometheus_port"`
}

// Load reads and validates configuration from file and environment.
func Load(configPath string) (*Config, error) {
	cfg, err := Read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Read loads configuration without validating it. Follow mode only needs
// the app section and has no API key.
func Read(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SILVER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SILVER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SILVER_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "SILVER_LOG_FILE")
	v.BindEnv("app.region", "SILVER_REGION")
	v.BindEnv("app.format", "SILVER_FORMAT")

	// Gemini
	v.BindEnv("gemini.api_key", "SILVER_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY")
	v.BindEnv("gemini.base_url", "SILVER_GEMINI_BASE_URL")
	v.BindEnv("gemini.price_model", "SILVER_GEMINI_PRICE_MODEL")
	v.BindEnv("gemini.forecast_model", "SILVER_GEMINI_FORECAST_MODEL")

	// Dashboard
	v.BindEnv("dashboard.fetch_timeout", "SILVER_FETCH_TIMEOUT")
	v.BindEnv("dashboard.auto_refresh", "SILVER_AUTO_REFRESH")

	// Feed
	v.BindEnv("feed.enabled", "SILVER_FEED_ENABLED")
	v.BindEnv("feed.port", "SILVER_FEED_PORT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SILVER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SILVER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SILVER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "SILVER_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "silver-ai")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.region", "Chennai, India")
	v.SetDefault("app.currency", "INR")
	v.SetDefault("app.format", "text")

	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.price_model", "gemini-2.5-flash")
	v.SetDefault("gemini.forecast_model", "gemini-2.5-pro")
	v.SetDefault("gemini.request_timeout", "90s")
	v.SetDefault("gemini.breaker_failures", 3)
	v.SetDefault("gemini.breaker_timeout", "30s")
	v.SetDefault("gemini.requests_per_minute", 10)
	v.SetDefault("gemini.trace_bodies", false)
	v.SetDefault("gemini.trace_body_limit", 4096)

	v.SetDefault("dashboard.fetch_timeout", "2m")
	v.SetDefault("dashboard.auto_refresh", "")
	v.SetDefault("dashboard.history_days", 30)

	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.port", 8082)

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.port", 8081)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "silver-ai")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.metrics_provider", "prometheus")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required (set GEMINI_API_KEY)")
	}
	if c.Gemini.PriceModel == "" || c.Gemini.ForecastModel == "" {
		return fmt.Errorf("gemini.price_model and gemini.forecast_model are required")
	}
	if c.Gemini.RequestsPerMinute < 0 {
		return fmt.Errorf("gemini.requests_per_minute cannot be negative")
	}
	if c.App.Region == "" {
		return fmt.Errorf("app.region cannot be empty")
	}
	if c.App.Currency == "" {
		return fmt.Errorf("app.currency cannot be empty")
	}
	switch c.App.Format {
	case "", "text", "yaml":
	default:
		return fmt.Errorf("invalid app.format: %s (want text or yaml)", c.App.Format)
	}
	if c.Dashboard.FetchTimeout <= 0 {
		return fmt.Errorf("dashboard.fetch_timeout must be positive, got %s", c.Dashboard.FetchTimeout)
	}
	if c.Dashboard.HistoryDays < 2 {
		return fmt.Errorf("dashboard.history_days must be at least 2, got %d", c.Dashboard.HistoryDays)
	}
	if c.Feed.Enabled && (c.Feed.Port <= 0 || c.Feed.Port > 65535) {
		return fmt.Errorf("invalid feed.port: %d", c.Feed.Port)
	}
	if c.Health.Enabled && c.Feed.Enabled && c.Health.Port == c.Feed.Port {
		return fmt.Errorf("feed.port and health.port must differ (%d)", c.Feed.Port)
	}
	switch c.Telemetry.TraceProvider {
	case "", "zipkin", "otlp-grpc", "otlp-http", "console", "none":
	default:
		return fmt.Errorf("invalid telemetry.trace_provider: %s", c.Telemetry.TraceProvider)
	}
	switch c.Telemetry.MetricsProvider {
	case "", "prometheus", "otlp":
	default:
		return fmt.Errorf("invalid telemetry.metrics_provider: %s", c.Telemetry.MetricsProvider)
	}
	return nil
}

// OTLPHeaderMap parses "k1=v1,k2=v2" headers.
func (c *TelemetryConfig) OTLPHeaderMap() map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.OTLPHeaders, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(val)
	}
	return headers
}
