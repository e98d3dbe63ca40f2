package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithEnvKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.App.Region != "Chennai, India" {
		t.Errorf("region = %q", cfg.App.Region)
	}
	if cfg.App.Currency != "INR" {
		t.Errorf("currency = %q", cfg.App.Currency)
	}
	if cfg.App.Format != "text" {
		t.Errorf("format = %q", cfg.App.Format)
	}
	if cfg.Gemini.PriceModel != "gemini-2.5-flash" || cfg.Gemini.ForecastModel != "gemini-2.5-pro" {
		t.Errorf("models = %q / %q", cfg.Gemini.PriceModel, cfg.Gemini.ForecastModel)
	}
	if cfg.Gemini.TraceBodyLimit != 4096 {
		t.Errorf("trace body limit = %d", cfg.Gemini.TraceBodyLimit)
	}
	if cfg.Dashboard.FetchTimeout != 2*time.Minute {
		t.Errorf("fetch timeout = %s", cfg.Dashboard.FetchTimeout)
	}
	if cfg.Dashboard.AutoRefresh != "" {
		t.Errorf("auto refresh should default to disabled, got %q", cfg.Dashboard.AutoRefresh)
	}
	if cfg.Feed.Enabled || cfg.Feed.Port != 8082 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_KEY", "fallback")
	t.Setenv("SILVER_GEMINI_API_KEY", "primary")
	t.Setenv("SILVER_REGION", "Mumbai, India")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "primary" {
		t.Errorf("api key = %q, want primary", cfg.Gemini.APIKey)
	}
	if cfg.App.Region != "Mumbai, India" {
		t.Errorf("region = %q", cfg.App.Region)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "silver.yaml")
	content := `
gemini:
  api_key: from-file
dashboard:
  fetch_timeout: 45s
  auto_refresh: "0 */15 * * * *"
feed:
  enabled: true
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "from-file" {
		t.Errorf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Dashboard.FetchTimeout != 45*time.Second {
		t.Errorf("fetch timeout = %s", cfg.Dashboard.FetchTimeout)
	}
	if cfg.Dashboard.AutoRefresh != "0 */15 * * * *" {
		t.Errorf("auto refresh = %q", cfg.Dashboard.AutoRefresh)
	}
	if !cfg.Feed.Enabled || cfg.Feed.Port != 9000 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:       AppConfig{Region: "Chennai, India", Currency: "INR"},
			Gemini:    GeminiConfig{APIKey: "k", PriceModel: "p", ForecastModel: "f"},
			Dashboard: DashboardConfig{FetchTimeout: time.Minute, HistoryDays: 30},
			Feed:      FeedConfig{Port: 8082},
			Health:    HealthConfig{Enabled: true, Port: 8081},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.Gemini.APIKey = "" }, "api_key"},
		{"empty region", func(c *Config) { c.App.Region = "" }, "region"},
		{"zero timeout", func(c *Config) { c.Dashboard.FetchTimeout = 0 }, "fetch_timeout"},
		{"short history", func(c *Config) { c.Dashboard.HistoryDays = 1 }, "history_days"},
		{"feed port clash", func(c *Config) {
			c.Feed.Enabled = true
			c.Feed.Port = 8081
		}, "must differ"},
		{"bad format", func(c *Config) { c.App.Format = "json" }, "app.format"},
		{"bad trace provider", func(c *Config) { c.Telemetry.TraceProvider = "jaeger" }, "trace_provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOTLPHeaderMap(t *testing.T) {
	c := TelemetryConfig{OTLPHeaders: "x-team=abc, x-dataset = silver ,broken"}
	got := c.OTLPHeaderMap()
	if len(got) != 2 || got["x-team"] != "abc" || got["x-dataset"] != "silver" {
		t.Errorf("headers = %v", got)
	}
}
