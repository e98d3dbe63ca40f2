package domain

import (
	"fmt"

	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/apperror"
)

// Phase is the view state tag.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseReady   Phase = "ready"
)

// GenericFailureMessage is the only failure text users ever see.
const GenericFailureMessage = "Failed to fetch silver price data. The market might be closed or the AI is unavailable."

// ViewState is the dashboard state. Fields outside the current phase are zero:
// Message only in PhaseError; Snapshot and Series only in PhaseReady, where a
// nil Forecast means it is still being generated.
type ViewState struct {
	Phase    Phase                       `json:"phase"`
	Cycle    uint64                      `json:"cycle"`
	Message  string                      `json:"message,omitempty"`
	Snapshot *marketDomain.PriceSnapshot `json:"snapshot,omitempty"`
	Series   marketDomain.Series         `json:"series,omitempty"`
	Forecast *marketDomain.Forecast      `json:"forecast,omitempty"`
}

// NewViewState returns the state shown before the first cycle starts.
func NewViewState() ViewState {
	return ViewState{Phase: PhaseLoading}
}

// Busy reports whether a cycle is running.
func (s ViewState) Busy() bool {
	switch s.Phase {
	case PhaseLoading:
		return true
	case PhaseReady:
		return s.Forecast == nil
	default:
		return false
	}
}

// ForecastPending reports a Ready state still waiting for its forecast.
func (s ViewState) ForecastPending() bool {
	return s.Phase == PhaseReady && s.Forecast == nil
}

// Event is an input to Apply.
type Event interface {
	event()
}

// RefreshStarted begins a cycle.
type RefreshStarted struct{}

// SeriesLoaded carries the quote-derived snapshot and its history.
type SeriesLoaded struct {
	Snapshot marketDomain.PriceSnapshot
	Series   marketDomain.Series
}

// ForecastLoaded completes a cycle.
type ForecastLoaded struct {
	Forecast *marketDomain.Forecast
}

// CycleFailed ends a cycle. Message is what the user sees.
type CycleFailed struct {
	Message string
}

func (RefreshStarted) event() {}
func (SeriesLoaded) event()   {}
func (ForecastLoaded) event() {}
func (CycleFailed) event()    {}

// Apply is the only way state changes. The receiver is never modified.
func (s ViewState) Apply(e Event) (ViewState, error) {
	switch ev := e.(type) {
	case RefreshStarted:
		// The initial Loading state has no cycle yet and may be started.
		if s.Busy() && s.Cycle > 0 {
			return s, invalidTransition(s, e)
		}
		return ViewState{Phase: PhaseLoading, Cycle: s.Cycle + 1}, nil

	case SeriesLoaded:
		if s.Phase != PhaseLoading || s.Cycle == 0 {
			return s, invalidTransition(s, e)
		}
		snap := ev.Snapshot
		return ViewState{
			Phase:    PhaseReady,
			Cycle:    s.Cycle,
			Snapshot: &snap,
			Series:   ev.Series,
		}, nil

	case ForecastLoaded:
		if !s.ForecastPending() || ev.Forecast == nil {
			return s, invalidTransition(s, e)
		}
		next := s
		next.Forecast = ev.Forecast
		return next, nil

	case CycleFailed:
		if !s.Busy() || s.Cycle == 0 {
			return s, invalidTransition(s, e)
		}
		msg := ev.Message
		if msg == "" {
			msg = GenericFailureMessage
		}
		return ViewState{Phase: PhaseError, Cycle: s.Cycle, Message: msg}, nil
	}

	return s, invalidTransition(s, e)
}

func invalidTransition(s ViewState, e Event) error {
	return apperror.New(apperror.CodeInvalidTransition,
		apperror.WithContext(fmt.Sprintf("%T in phase %s (cycle %d)", e, s.Phase, s.Cycle)))
}
