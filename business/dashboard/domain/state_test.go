package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/apperror"
)

func mustApply(t *testing.T, s ViewState, e Event) ViewState {
	t.Helper()
	next, err := s.Apply(e)
	if err != nil {
		t.Fatalf("Apply(%T) from %s: %v", e, s.Phase, err)
	}
	return next
}

func seriesLoaded() SeriesLoaded {
	history := marketDomain.Series{
		{Date: "2025-03-04", Price: decimal.RequireFromString("90.00")},
		{Date: "2025-03-05", Price: decimal.RequireFromString("95.50")},
	}
	return SeriesLoaded{
		Snapshot: marketDomain.Compute(decimal.RequireFromString("95.50"), history),
		Series:   history,
	}
}

func TestViewState_FullCycle(t *testing.T) {
	s := NewViewState()
	if s.Phase != PhaseLoading || !s.Busy() {
		t.Fatalf("initial = %+v", s)
	}

	s = mustApply(t, s, RefreshStarted{})
	if s.Cycle != 1 {
		t.Errorf("cycle = %d", s.Cycle)
	}

	s = mustApply(t, s, seriesLoaded())
	if s.Phase != PhaseReady || !s.ForecastPending() || !s.Busy() {
		t.Fatalf("partial ready = %+v", s)
	}
	if !s.Snapshot.Yesterday.Equal(decimal.RequireFromString("5.50")) {
		t.Errorf("yesterday = %s", s.Snapshot.Yesterday)
	}

	s = mustApply(t, s, ForecastLoaded{Forecast: &marketDomain.Forecast{Recommendation: "Hold", Tomorrow: "Stable"}})
	if s.Busy() || s.ForecastPending() {
		t.Errorf("final state still busy: %+v", s)
	}

	s = mustApply(t, s, RefreshStarted{})
	if s.Phase != PhaseLoading || s.Cycle != 2 || s.Snapshot != nil || s.Forecast != nil {
		t.Errorf("refresh did not reset: %+v", s)
	}
}

func TestViewState_FailureDropsPartialData(t *testing.T) {
	s := mustApply(t, NewViewState(), RefreshStarted{})
	s = mustApply(t, s, seriesLoaded())
	s = mustApply(t, s, CycleFailed{})

	if s.Phase != PhaseError {
		t.Fatalf("phase = %s", s.Phase)
	}
	if s.Message != GenericFailureMessage {
		t.Errorf("message = %q", s.Message)
	}
	if s.Snapshot != nil || s.Series != nil || s.Forecast != nil {
		t.Errorf("error state kept data: %+v", s)
	}

	// Error is terminal until the next refresh.
	s = mustApply(t, s, RefreshStarted{})
	if s.Phase != PhaseLoading {
		t.Errorf("phase after retry = %s", s.Phase)
	}
}

func TestViewState_InvalidTransitions(t *testing.T) {
	loading := mustApply(t, NewViewState(), RefreshStarted{})
	partial := mustApply(t, loading, seriesLoaded())
	ready := mustApply(t, partial, ForecastLoaded{Forecast: &marketDomain.Forecast{Recommendation: "x", Tomorrow: "y"}})
	failed := mustApply(t, loading, CycleFailed{})

	tests := []struct {
		name  string
		state ViewState
		event Event
	}{
		{"refresh while loading", loading, RefreshStarted{}},
		{"refresh while forecast pending", partial, RefreshStarted{}},
		{"series before any cycle", NewViewState(), seriesLoaded()},
		{"series twice", partial, seriesLoaded()},
		{"forecast while loading", loading, ForecastLoaded{Forecast: &marketDomain.Forecast{}}},
		{"nil forecast", partial, ForecastLoaded{}},
		{"forecast after ready", ready, ForecastLoaded{Forecast: &marketDomain.Forecast{}}},
		{"fail when ready", ready, CycleFailed{}},
		{"fail twice", failed, CycleFailed{}},
		{"fail before any cycle", NewViewState(), CycleFailed{}},
		{"nil event", loading, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := tt.state.Apply(tt.event)
			if apperror.GetCode(err) != apperror.CodeInvalidTransition {
				t.Fatalf("err = %v, want invalid transition", err)
			}
			if next.Phase != tt.state.Phase || next.Cycle != tt.state.Cycle {
				t.Errorf("state changed on rejected event: %+v", next)
			}
		})
	}
}

func TestFrame_JSON(t *testing.T) {
	s := mustApply(t, NewViewState(), RefreshStarted{})
	s = mustApply(t, s, seriesLoaded())
	saturday := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)

	frame := NewFrame(s, "Chennai, India", "INR", saturday)
	if frame.Subtitle() != "Last closing price (Friday) for Chennai, India" {
		t.Errorf("subtitle = %q", frame.Subtitle())
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Frame
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.State.Phase != PhaseReady || !decoded.State.ForecastPending() {
		t.Errorf("decoded state = %+v", decoded.State)
	}
	if decoded.Policy.Session != marketDomain.SessionWeekend || !decoded.Policy.SuppressChange {
		t.Errorf("decoded policy = %+v", decoded.Policy)
	}
	if !decoded.State.Snapshot.Current.Equal(decimal.RequireFromString("95.50")) {
		t.Errorf("decoded current = %s", decoded.State.Snapshot.Current)
	}
}
