package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	marketApp "github.com/fd1az/silver-ai/business/market/app"
	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/apperror"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/internal/logger"
)

// wednesday is 2025-03-05 10:00 UTC.
var wednesday = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

type recordingReporter struct {
	mu     sync.Mutex
	frames []domain.Frame
}

func (r *recordingReporter) Start(context.Context) error { return nil }
func (r *recordingReporter) Stop() error                 { return nil }

func (r *recordingReporter) Publish(f domain.Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *recordingReporter) phases() []domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Phase, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.State.Phase
		if f.State.ForecastPending() {
			out[i] = "ready(pending)"
		}
	}
	return out
}

func (r *recordingReporter) last() domain.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

// stubGateway is a market gateway with optional failures and a gate that
// holds CurrentPrice until released.
type stubGateway struct {
	priceErr    error
	seriesErr   error
	forecastErr error
	gate        chan struct{}
	entered     chan struct{}
}

func (g *stubGateway) CurrentPrice(ctx context.Context, _ string) (decimal.Decimal, error) {
	if g.entered != nil {
		close(g.entered)
	}
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return decimal.Zero, apperror.External(apperror.CodeGatewayRequestFailed, "price", ctx.Err())
		}
	}
	return decimal.RequireFromString("95.50"), g.priceErr
}

func (g *stubGateway) HistoricalSeries(context.Context, decimal.Decimal, string) (marketDomain.Series, error) {
	if g.seriesErr != nil {
		return nil, g.seriesErr
	}
	return marketDomain.Series{
		{Date: "2025-03-04", Price: decimal.RequireFromString("90.00")},
		{Date: "2025-03-05", Price: decimal.RequireFromString("93.00")},
	}, nil
}

func (g *stubGateway) Forecast(context.Context, decimal.Decimal, marketDomain.Series) (*marketDomain.Forecast, error) {
	if g.forecastErr != nil {
		return nil, g.forecastErr
	}
	return &marketDomain.Forecast{Recommendation: "Hold", Tomorrow: "Stable"}, nil
}

func newTestController(gw marketApp.Gateway, timeout time.Duration) (*Controller, *recordingReporter) {
	clock := func() time.Time { return wednesday }
	market := marketApp.NewMarketService(gw,
		marketApp.ServiceConfig{Region: "Chennai, India", Currency: asset.INR},
		clock, logger.Nop())

	rep := &recordingReporter{}
	ctrl := NewController(market, ControllerConfig{Currency: "INR", FetchTimeout: timeout}, clock, logger.Nop(), rep)
	return ctrl, rep
}

func equalPhases(got []domain.Phase, want ...domain.Phase) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestController_RefreshSuccess(t *testing.T) {
	ctrl, rep := newTestController(&stubGateway{}, time.Second)

	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := rep.phases(); !equalPhases(got, domain.PhaseLoading, "ready(pending)", domain.PhaseReady) {
		t.Fatalf("phases = %v", got)
	}

	final := rep.last()
	snap := final.State.Snapshot
	if !snap.Current.Equal(decimal.RequireFromString("95.50")) {
		t.Errorf("current = %s", snap.Current)
	}
	// History is anchored, so the previous point (90.00) is the reference.
	if !snap.Yesterday.Equal(decimal.RequireFromString("5.50")) {
		t.Errorf("yesterday = %s", snap.Yesterday)
	}
	if !final.State.Series.Last().Equal(decimal.RequireFromString("95.50")) {
		t.Errorf("series not anchored: %s", final.State.Series.Last())
	}
	if final.State.Forecast == nil || final.State.Forecast.Recommendation != "Hold" {
		t.Errorf("forecast = %+v", final.State.Forecast)
	}
	if final.Region != "Chennai, India" || final.Currency != "INR" || final.Policy.ChangeLabel != domain.ChangeLabelDaily {
		t.Errorf("frame meta = %+v", final)
	}
}

func TestController_FirstCallFailure(t *testing.T) {
	upstream := apperror.External(apperror.CodeGatewayRequestFailed, "HTTP 503", errors.New("secret upstream detail"))
	ctrl, rep := newTestController(&stubGateway{priceErr: upstream}, time.Second)

	err := ctrl.Refresh(context.Background())
	if !errors.Is(err, upstream) {
		t.Fatalf("err = %v", err)
	}

	if got := rep.phases(); !equalPhases(got, domain.PhaseLoading, domain.PhaseError) {
		t.Fatalf("phases = %v", got)
	}
	msg := rep.last().State.Message
	if msg != domain.GenericFailureMessage {
		t.Errorf("message = %q", msg)
	}
	if strings.Contains(msg, "secret") {
		t.Error("underlying error leaked to the view")
	}
}

func TestController_ForecastFailureDropsPartialData(t *testing.T) {
	gw := &stubGateway{forecastErr: apperror.External(apperror.CodeGatewayMalformedResponse, "forecast", nil)}
	ctrl, rep := newTestController(gw, time.Second)

	if err := ctrl.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if got := rep.phases(); !equalPhases(got, domain.PhaseLoading, "ready(pending)", domain.PhaseError) {
		t.Fatalf("phases = %v", got)
	}
	final := rep.last().State
	if final.Snapshot != nil || final.Series != nil || final.Forecast != nil {
		t.Errorf("error state kept partial data: %+v", final)
	}
}

func TestController_RefreshWhileInFlight(t *testing.T) {
	gw := &stubGateway{gate: make(chan struct{}), entered: make(chan struct{})}
	ctrl, rep := newTestController(gw, 5*time.Second)

	if !ctrl.Trigger(context.Background()) {
		t.Fatal("first Trigger rejected")
	}
	<-gw.entered

	if !ctrl.Busy() {
		t.Error("Busy = false during cycle")
	}
	if err := ctrl.Refresh(context.Background()); !errors.Is(err, ErrRefreshInFlight) {
		t.Errorf("Refresh err = %v, want in flight", err)
	}
	if ctrl.Trigger(context.Background()) {
		t.Error("second Trigger accepted")
	}

	close(gw.gate)
	ctrl.Wait()

	if got := rep.phases(); !equalPhases(got, domain.PhaseLoading, "ready(pending)", domain.PhaseReady) {
		t.Fatalf("phases = %v", got)
	}
	if ctrl.State().Cycle != 1 {
		t.Errorf("cycle = %d, rejected refreshes must not start cycles", ctrl.State().Cycle)
	}
}

func TestController_FetchTimeout(t *testing.T) {
	gw := &stubGateway{gate: make(chan struct{})}
	ctrl, rep := newTestController(gw, 20*time.Millisecond)

	err := ctrl.Refresh(context.Background())
	if apperror.GetCode(err) != apperror.CodeServiceTimeout {
		t.Fatalf("code = %s, err = %v", apperror.GetCode(err), err)
	}
	if rep.last().State.Phase != domain.PhaseError {
		t.Errorf("phase = %s", rep.last().State.Phase)
	}
}

func TestController_StartPublishesLoadingThenRuns(t *testing.T) {
	ctrl, rep := newTestController(&stubGateway{}, time.Second)

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctrl.Wait()

	got := rep.phases()
	if !equalPhases(got, domain.PhaseLoading, domain.PhaseLoading, "ready(pending)", domain.PhaseReady) {
		t.Fatalf("phases = %v", got)
	}
	if rep.frames[0].State.Cycle != 0 {
		t.Errorf("initial frame cycle = %d", rep.frames[0].State.Cycle)
	}
}

func TestController_RetryAfterError(t *testing.T) {
	gw := &stubGateway{seriesErr: apperror.External(apperror.CodeGatewayMalformedResponse, "history", nil)}
	ctrl, _ := newTestController(gw, time.Second)

	_ = ctrl.Refresh(context.Background())
	if ctrl.State().Phase != domain.PhaseError {
		t.Fatalf("phase = %s", ctrl.State().Phase)
	}

	gw.seriesErr = nil
	if err := ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if s := ctrl.State(); s.Phase != domain.PhaseReady || s.Cycle != 2 {
		t.Errorf("state = %+v", s)
	}
}
