package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/logger"
)

// monday is 2025-03-03 10:00 UTC.
var monday = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func series() marketDomain.Series {
	return marketDomain.Series{
		{Date: "2025-03-01", Price: decimal.RequireFromString("88")},
		{Date: "2025-03-02", Price: decimal.RequireFromString("90")},
		{Date: "2025-03-03", Price: decimal.RequireFromString("95.50")},
	}
}

func frames(at time.Time) (loading, partial, done, failed domain.Frame) {
	s := series()
	snap := marketDomain.Compute(s.Last(), s)
	fc := &marketDomain.Forecast{
		Recommendation: "Hold",
		Tomorrow:       "Flat",
		OneYear:        marketDomain.Scenario{BestCase: decimal.NewFromInt(120), WorstCase: decimal.NewFromInt(80), AverageCase: decimal.NewFromInt(100)},
	}

	mk := func(v domain.ViewState) domain.Frame {
		return domain.NewFrame(v, "Chennai, India", "INR", at)
	}
	loading = mk(domain.ViewState{Phase: domain.PhaseLoading, Cycle: 1})
	partial = mk(domain.ViewState{Phase: domain.PhaseReady, Cycle: 1, Snapshot: &snap, Series: s})
	done = mk(domain.ViewState{Phase: domain.PhaseReady, Cycle: 1, Snapshot: &snap, Series: s, Forecast: fc})
	failed = mk(domain.ViewState{Phase: domain.PhaseError, Cycle: 2, Message: domain.GenericFailureMessage})
	return
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"YAML", FormatYAML, false},
		{"json", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestConsoleReporter_Text(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf, FormatText, asset.DefaultRegistry())

	loading, partial, done, failed := frames(monday)
	for _, f := range []domain.Frame{loading, partial, done, done, failed, failed} {
		r.Publish(f)
	}
	out := buf.String()

	for _, w := range []string{
		"Live price for Chennai, India",
		"Price:          ₹95.50",
		"▲ ₹5.50 (vs Friday)",
		"30 Days:        ▲ ₹7.50",
		"HISTORY (3 points, 2025-03-01 to 2025-03-03)",
		"Today's Outlook:     Hold",
		"1 Year   worst ₹80.00  average ₹100.00  best ₹120.00",
		"Error: " + domain.GenericFailureMessage,
	} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q in:\n%s", w, out)
		}
	}
	if n := strings.Count(out, "CURRENT PRICE"); n != 1 {
		t.Errorf("snapshot printed %d times", n)
	}
	if n := strings.Count(out, "AI INVESTMENT ANALYSIS"); n != 1 {
		t.Errorf("forecast printed %d times", n)
	}
	if n := strings.Count(out, "Error:"); n != 1 {
		t.Errorf("error printed %d times", n)
	}
}

func TestConsoleReporter_WeekendHidesChange(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf, FormatText, asset.DefaultRegistry())

	_, partial, _, _ := frames(time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC))
	r.Publish(partial)

	out := buf.String()
	if strings.Contains(out, "Change:") {
		t.Errorf("weekend output shows change:\n%s", out)
	}
	if !strings.Contains(out, "Last updated: Friday's close") {
		t.Errorf("missing freshness:\n%s", out)
	}
}

func TestConsoleReporter_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporterTo(&buf, FormatYAML, asset.DefaultRegistry())

	loading, partial, done, failed := frames(monday)
	for _, f := range []domain.Frame{loading, partial, done, failed} {
		r.Publish(f)
	}

	dec := yaml.NewDecoder(&buf)
	var docs []map[string]any
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			break
		}
		docs = append(docs, doc)
	}

	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2 (one per finished cycle)", len(docs))
	}
	if docs[0]["phase"] != "ready" || docs[0]["change_label"] != "(vs Friday)" {
		t.Errorf("first doc = %v", docs[0])
	}
	fc, ok := docs[0]["forecast"].(map[string]any)
	if !ok || fc["recommendation"] != "Hold" {
		t.Errorf("forecast = %v", docs[0]["forecast"])
	}
	if docs[1]["phase"] != "error" || docs[1]["message"] != domain.GenericFailureMessage {
		t.Errorf("second doc = %v", docs[1])
	}
}

func TestFeed_State(t *testing.T) {
	feed := NewFeed(FeedConfig{}, logger.Nop())
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status before publish = %d", resp.StatusCode)
	}

	_, _, done, _ := frames(monday)
	feed.Publish(done)

	resp, err = http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got domain.Frame
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State.Phase != domain.PhaseReady || got.State.Forecast == nil {
		t.Errorf("state = %+v", got.State)
	}
	if !got.State.Snapshot.Current.Equal(decimal.RequireFromString("95.5")) {
		t.Errorf("current = %s", got.State.Snapshot.Current)
	}
}

func TestFeed_Stream(t *testing.T) {
	feed := NewFeed(FeedConfig{}, logger.Nop())
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()
	defer feed.Stop()

	loading, partial, _, _ := frames(monday)
	feed.Publish(loading)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	read := func() domain.Frame {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var f domain.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return f
	}

	if f := read(); f.State.Phase != domain.PhaseLoading {
		t.Fatalf("first frame phase = %s, want latest (loading)", f.State.Phase)
	}

	feed.Publish(partial)
	if f := read(); f.State.Phase != domain.PhaseReady || !f.State.ForecastPending() {
		t.Fatalf("second frame = %+v", f.State)
	}
}

func TestFeed_SlowSubscriberDrops(t *testing.T) {
	feed := NewFeed(FeedConfig{Buffer: 1}, logger.Nop())

	sub, ok := feed.subscribe()
	if !ok {
		t.Fatal("subscribe failed")
	}

	loading, partial, done, _ := frames(monday)
	feed.Publish(loading)
	feed.Publish(partial)
	feed.Publish(done)

	if got := feed.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}
	if len(sub.frames) != 1 {
		t.Errorf("queued = %d", len(sub.frames))
	}

	if err := feed.Stop(); err != nil {
		t.Fatal(err)
	}
	if feed.Subscribers() != 0 {
		t.Error("stop should drop subscribers")
	}
	if _, ok := feed.subscribe(); ok {
		t.Error("subscribe after stop should fail")
	}
}

type recordingReporter struct {
	mu     sync.Mutex
	frames []domain.Frame
	got    chan struct{}
}

func (r *recordingReporter) Start(context.Context) error { return nil }
func (r *recordingReporter) Stop() error                 { return nil }

func (r *recordingReporter) Publish(f domain.Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	select {
	case r.got <- struct{}{}:
	default:
	}
}

func TestFollower_MirrorsFeed(t *testing.T) {
	feed := NewFeed(FeedConfig{}, logger.Nop())
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()
	defer feed.Stop()

	_, _, done, _ := frames(monday)
	feed.Publish(done)

	rec := &recordingReporter{got: make(chan struct{}, 1)}
	follower, err := NewFollower("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/stream", rec, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- follower.Run(ctx) }()

	select {
	case <-rec.got:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame mirrored")
	}

	rec.mu.Lock()
	got := rec.frames[0]
	rec.mu.Unlock()
	if got.State.Forecast == nil || got.State.Forecast.Recommendation != "Hold" {
		t.Errorf("mirrored state = %+v", got.State)
	}
	if got.Policy.ChangeLabel != domain.ChangeLabelVsFriday {
		t.Errorf("policy = %+v", got.Policy)
	}

	cancel()
	select {
	case <-errc:
	case <-time.After(5 * time.Second):
		t.Fatal("follower did not stop")
	}
}

func TestNewFollower_RequiresURL(t *testing.T) {
	if _, err := NewFollower("", &recordingReporter{}, logger.Nop()); err == nil {
		t.Fatal("expected error for empty url")
	}
}
