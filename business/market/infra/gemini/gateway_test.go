package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/internal/apperror"
	"github.com/fd1az/silver-ai/internal/logger"
)

// Wednesday 2025-03-05 and Sunday 2025-03-09.
var (
	wednesday = time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	sunday    = time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)
)

type capture struct {
	path   string
	apiKey string
	req    GenerateRequest
}

func textResponse(text string) string {
	resp := GenerateResponse{Candidates: []Candidate{{
		Content:      Content{Role: "model", Parts: []Part{{Text: text}}},
		FinishReason: "STOP",
	}}}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestGateway(t *testing.T, now time.Time, status int, body string) (*Gateway, *capture, *int32) {
	t.Helper()
	got := &capture{}
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		got.path = r.URL.Path
		got.apiKey = r.Header.Get(apiKeyHeader)
		_ = json.NewDecoder(r.Body).Decode(&got.req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	gw := NewGateway(client, GatewayConfig{
		PriceModel:    "gemini-2.5-flash",
		ForecastModel: "gemini-2.5-pro",
		HistoryDays:   30,
	}, func() time.Time { return now })
	return gw, got, &hits
}

func promptOf(c *capture) string {
	if len(c.req.Contents) == 0 || len(c.req.Contents[0].Parts) == 0 {
		return ""
	}
	return c.req.Contents[0].Parts[0].Text
}

func TestGateway_CurrentPriceWeekday(t *testing.T) {
	gw, got, _ := newTestGateway(t, wednesday, http.StatusOK, textResponse("₹95.50"))

	price, err := gw.CurrentPrice(context.Background(), "Chennai, India")
	if err != nil {
		t.Fatalf("CurrentPrice: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("95.50")) {
		t.Errorf("price = %s", price)
	}

	if got.path != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %s", got.path)
	}
	if got.apiKey != "test-key" {
		t.Errorf("api key header = %q", got.apiKey)
	}
	if len(got.req.Tools) != 1 || got.req.Tools[0].GoogleSearch == nil {
		t.Errorf("tools = %+v, want google_search", got.req.Tools)
	}
	prompt := promptOf(got)
	if !strings.Contains(prompt, "current price of 1 gram of silver in Chennai, India") {
		t.Errorf("prompt = %q", prompt)
	}
	if strings.Contains(prompt, "Friday") {
		t.Errorf("weekday prompt mentions Friday: %q", prompt)
	}
}

func TestGateway_CurrentPriceWeekendAsksForFridayClose(t *testing.T) {
	gw, got, _ := newTestGateway(t, sunday, http.StatusOK, textResponse("94.10"))

	if _, err := gw.CurrentPrice(context.Background(), "Chennai, India"); err != nil {
		t.Fatalf("CurrentPrice: %v", err)
	}
	if prompt := promptOf(got); !strings.Contains(prompt, "closing price of 1 gram of silver in Chennai, India last Friday") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestGateway_CurrentPriceUnparseable(t *testing.T) {
	gw, _, _ := newTestGateway(t, wednesday, http.StatusOK, textResponse("I cannot say."))

	_, err := gw.CurrentPrice(context.Background(), "Chennai, India")
	if apperror.GetCode(err) != apperror.CodeGatewayUnparseableContent {
		t.Fatalf("code = %s, err = %v", apperror.GetCode(err), err)
	}
}

func TestGateway_HistoricalSeries(t *testing.T) {
	body := textResponse(`[{"date":"2025-03-04","price":93.2},{"date":"2025-03-05","price":94.8}]`)
	gw, got, _ := newTestGateway(t, wednesday, http.StatusOK, body)

	series, err := gw.HistoricalSeries(context.Background(), decimal.RequireFromString("95.50"), "Chennai, India")
	if err != nil {
		t.Fatalf("HistoricalSeries: %v", err)
	}
	if len(series) != 2 || series[0].Date != "2025-03-04" || !series[1].Price.Equal(decimal.RequireFromString("94.8")) {
		t.Errorf("series = %+v", series)
	}

	cfg := got.req.GenerationConfig
	if cfg == nil || cfg.ResponseMIMEType != "application/json" || cfg.ResponseSchema.Type != "ARRAY" {
		t.Fatalf("generation config = %+v", cfg)
	}
	prompt := promptOf(got)
	for _, want := range []string{"from 2025-02-03 to 2025-03-05", "must be exactly 95.5", "Chennai, India's currency"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q: %q", want, prompt)
		}
	}
}

func TestGateway_HistoricalSeriesMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty array", `[]`},
		{"object", `{"date":"2025-03-05","price":1}`},
		{"prose", `Here are the prices you asked for`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _, _ := newTestGateway(t, wednesday, http.StatusOK, textResponse(tt.text))
			_, err := gw.HistoricalSeries(context.Background(), decimal.NewFromInt(1), "x")
			if apperror.GetCode(err) != apperror.CodeGatewayMalformedResponse {
				t.Errorf("code = %s, err = %v", apperror.GetCode(err), err)
			}
		})
	}
}

func TestGateway_Forecast(t *testing.T) {
	text := `{"recommendation":"Cautious Hold","tomorrow":"Stable with minor fluctuations",
		"oneYear":{"bestCase":110,"worstCase":85,"averageCase":98},
		"fiveYear":{"bestCase":160,"worstCase":80,"averageCase":120},
		"tenYear":{"bestCase":250,"worstCase":90,"averageCase":170}}`
	gw, got, _ := newTestGateway(t, wednesday, http.StatusOK, textResponse(text))

	history := seriesFixture()
	f, err := gw.Forecast(context.Background(), decimal.RequireFromString("95.50"), history)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if f.Recommendation != "Cautious Hold" || !f.TenYear.BestCase.Equal(decimal.NewFromInt(250)) {
		t.Errorf("forecast = %+v", f)
	}

	if got.path != "/v1beta/models/gemini-2.5-pro:generateContent" {
		t.Errorf("path = %s", got.path)
	}
	prompt := promptOf(got)
	if !strings.Contains(prompt, "The price started at 90 30 days ago and is now 95.5") {
		t.Errorf("prompt trend = %q", prompt)
	}
	if got.req.GenerationConfig.ResponseSchema.Type != "OBJECT" {
		t.Errorf("schema = %+v", got.req.GenerationConfig.ResponseSchema)
	}
}

func TestGateway_ForecastIncomplete(t *testing.T) {
	gw, _, _ := newTestGateway(t, wednesday, http.StatusOK, textResponse(`{"tomorrow":"up"}`))

	_, err := gw.Forecast(context.Background(), decimal.NewFromInt(1), nil)
	if apperror.GetCode(err) != apperror.CodeGatewayMalformedResponse {
		t.Errorf("code = %s", apperror.GetCode(err))
	}
}

func TestGateway_ForecastMissingHorizon(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no horizons", `{"recommendation":"Hold","tomorrow":"Stable"}`},
		{"no ten year", `{"recommendation":"Hold","tomorrow":"Stable",
			"oneYear":{"bestCase":110,"worstCase":85,"averageCase":98},
			"fiveYear":{"bestCase":160,"worstCase":80,"averageCase":120}}`},
		{"missing case", `{"recommendation":"Hold","tomorrow":"Stable",
			"oneYear":{"bestCase":110,"worstCase":85,"averageCase":98},
			"fiveYear":{"bestCase":160,"averageCase":120},
			"tenYear":{"bestCase":250,"worstCase":90,"averageCase":170}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _, _ := newTestGateway(t, wednesday, http.StatusOK, textResponse(tt.text))

			f, err := gw.Forecast(context.Background(), decimal.NewFromInt(1), nil)
			if f != nil {
				t.Errorf("forecast = %+v, want nil", f)
			}
			if apperror.GetCode(err) != apperror.CodeGatewayMalformedResponse {
				t.Errorf("code = %s, err = %v", apperror.GetCode(err), err)
			}
		})
	}
}

func TestParseForecast_ZeroCaseIsKept(t *testing.T) {
	text := `{"recommendation":"Hold","tomorrow":"Stable",
		"oneYear":{"bestCase":0,"worstCase":0,"averageCase":0},
		"fiveYear":{"bestCase":160,"worstCase":80,"averageCase":120},
		"tenYear":{"bestCase":250,"worstCase":90,"averageCase":170}}`

	f, err := parseForecast(text)
	if err != nil {
		t.Fatalf("parseForecast: %v", err)
	}
	if !f.OneYear.BestCase.IsZero() || !f.FiveYear.WorstCase.Equal(decimal.NewFromInt(80)) {
		t.Errorf("forecast = %+v", f)
	}
}

func TestGateway_APIError(t *testing.T) {
	body := `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`
	gw, _, _ := newTestGateway(t, wednesday, http.StatusForbidden, body)

	_, err := gw.CurrentPrice(context.Background(), "x")
	if apperror.GetCode(err) != apperror.CodeGatewayRequestFailed {
		t.Fatalf("code = %s", apperror.GetCode(err))
	}
	if !apperror.IsGatewayError(err) {
		t.Error("expected gateway error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("cause is not APIError: %v", err)
	}
	if apiErr.Status != "PERMISSION_DENIED" || apiErr.HTTPStatus != http.StatusForbidden {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestGateway_BlockedPrompt(t *testing.T) {
	gw, _, _ := newTestGateway(t, wednesday, http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`)

	_, err := gw.CurrentPrice(context.Background(), "x")
	if apperror.GetCode(err) != apperror.CodeGatewayBlocked {
		t.Errorf("code = %s", apperror.GetCode(err))
	}
}

func TestGateway_NoCandidates(t *testing.T) {
	gw, _, _ := newTestGateway(t, wednesday, http.StatusOK, `{"candidates":[]}`)

	_, err := gw.CurrentPrice(context.Background(), "x")
	if apperror.GetCode(err) != apperror.CodeGatewayMalformedResponse {
		t.Errorf("code = %s", apperror.GetCode(err))
	}
}

func TestGateway_BreakerOpensWithoutRetrying(t *testing.T) {
	gw, _, hits := newTestGateway(t, wednesday, http.StatusInternalServerError, `oops`)

	for i := 0; i < 2; i++ {
		if _, err := gw.CurrentPrice(context.Background(), "x"); apperror.GetCode(err) != apperror.CodeGatewayRequestFailed {
			t.Fatalf("call %d: code = %s", i, apperror.GetCode(err))
		}
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Fatalf("hits = %d, want one request per call", got)
	}

	_, err := gw.CurrentPrice(context.Background(), "x")
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Fatalf("code = %s, want circuit open", apperror.GetCode(err))
	}
	if !gw.BreakerOpen() {
		t.Error("BreakerOpen = false")
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Errorf("open breaker still reached the server: hits = %d", got)
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}, logger.Nop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_RateLimitedCallFailsFast(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(textResponse("95.50")))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		RequestsPerMinute: 1,
	}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	gw := NewGateway(client, GatewayConfig{PriceModel: "m", ForecastModel: "m", HistoryDays: 30},
		func() time.Time { return wednesday })

	if _, err := gw.CurrentPrice(context.Background(), "x"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = gw.CurrentPrice(ctx, "x")
	if apperror.GetCode(err) != apperror.CodeGatewayRequestFailed {
		t.Fatalf("code = %s, want request failed", apperror.GetCode(err))
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("throttled call reached the server: hits = %d", got)
	}
	if gw.BreakerOpen() {
		t.Error("throttling must not trip the breaker")
	}
}
