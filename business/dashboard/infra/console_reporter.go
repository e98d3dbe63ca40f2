package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fd1az/silver-ai/business/dashboard/domain"
	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
	"github.com/fd1az/silver-ai/internal/asset"
	"github.com/fd1az/silver-ai/pkg/ui/components"
)

// Format selects the console output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a -format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or yaml)", s)
	}
}

// report is the YAML document written for each finished cycle.
type report struct {
	Region      string                      `yaml:"region"`
	Currency    string                      `yaml:"currency"`
	At          time.Time                   `yaml:"at"`
	Cycle       uint64                      `yaml:"cycle"`
	Phase       domain.Phase                `yaml:"phase"`
	Subtitle    string                      `yaml:"subtitle"`
	Freshness   string                      `yaml:"freshness"`
	ChangeLabel string                      `yaml:"change_label"`
	Message     string                      `yaml:"message,omitempty"`
	Snapshot    *marketDomain.PriceSnapshot `yaml:"snapshot,omitempty"`
	History     marketDomain.Series         `yaml:"history,omitempty"`
	Forecast    *marketDomain.Forecast      `yaml:"forecast,omitempty"`
}

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out      io.Writer
	format   Format
	registry *asset.Registry

	mu sync.Mutex
	// Last cycles whose sections were printed, so repeated frames
	// (e.g. a follower reconnecting) do not print twice.
	snapshotCycle uint64
	forecastCycle uint64
	errorCycle    uint64
}

// NewConsoleReporter creates a new ConsoleReporter writing to stdout.
func NewConsoleReporter(format Format, registry *asset.Registry) *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout, format, registry)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer, format Format, registry *asset.Registry) *ConsoleReporter {
	return &ConsoleReporter{out: w, format: format, registry: registry}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	if r.format == FormatText {
		fmt.Fprintln(r.out, "Silver Price AI")
		fmt.Fprintln(r.out, "===============")
	}
	return nil
}

// Publish prints the parts of the frame not yet printed for its cycle.
func (r *ConsoleReporter) Publish(frame domain.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.format == FormatYAML {
		r.publishYAML(frame)
		return
	}
	r.publishText(frame)
}

func (r *ConsoleReporter) publishYAML(frame domain.Frame) {
	s := frame.State
	switch {
	case s.Phase == domain.PhaseError && s.Cycle != r.errorCycle:
		r.errorCycle = s.Cycle
	case s.Phase == domain.PhaseReady && s.Forecast != nil && s.Cycle != r.forecastCycle:
		r.forecastCycle = s.Cycle
	default:
		return
	}

	doc := report{
		Region:      frame.Region,
		Currency:    frame.Currency,
		At:          frame.At,
		Cycle:       s.Cycle,
		Phase:       s.Phase,
		Subtitle:    frame.Subtitle(),
		Freshness:   frame.Policy.Freshness,
		ChangeLabel: string(frame.Policy.ChangeLabel),
		Message:     s.Message,
		Snapshot:    s.Snapshot,
		History:     s.Series,
		Forecast:    s.Forecast,
	}

	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		fmt.Fprintf(r.out, "# encode failed: %v\n", err)
	}
	_ = enc.Close()
}

func (r *ConsoleReporter) publishText(frame domain.Frame) {
	s := frame.State
	stamp := frame.At.Format("15:04:05")

	switch s.Phase {
	case domain.PhaseLoading:
		if s.Cycle > 0 {
			fmt.Fprintf(r.out, "\n[%s] %s\n", stamp, frame.Subtitle())
			fmt.Fprintln(r.out, "Fetching silver prices...")
		}

	case domain.PhaseError:
		if s.Cycle == r.errorCycle {
			return
		}
		r.errorCycle = s.Cycle
		fmt.Fprintf(r.out, "[%s] Error: %s\n", stamp, s.Message)

	case domain.PhaseReady:
		currency, _ := r.registry.Get(frame.Currency)
		if s.Cycle != r.snapshotCycle {
			r.snapshotCycle = s.Cycle
			r.printSnapshot(frame, currency)
		}
		if s.Forecast != nil && s.Cycle != r.forecastCycle {
			r.forecastCycle = s.Cycle
			r.printForecast(s.Forecast, currency)
		}
	}
}

func (r *ConsoleReporter) printSnapshot(frame domain.Frame, currency *asset.Asset) {
	snap := frame.State.Snapshot
	if snap == nil {
		return
	}

	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "CURRENT PRICE (1 gram)")
	fmt.Fprintf(r.out, "  Price:          %s\n", asset.Format(currency, snap.Current))
	if !frame.Policy.SuppressChange {
		fmt.Fprintf(r.out, "  Change:         %s %s %s\n",
			components.Arrow(snap.Yesterday), asset.FormatAbs(currency, snap.Yesterday), frame.Policy.ChangeLabel)
	}
	fmt.Fprintf(r.out, "  %s\n", frame.Policy.Freshness)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "HISTORICAL CHANGE")
	fmt.Fprintf(r.out, "  7 Days:         %s %s\n", components.Arrow(snap.Week), asset.FormatAbs(currency, snap.Week))
	fmt.Fprintf(r.out, "  15 Days:        %s %s\n", components.Arrow(snap.Fifteen), asset.FormatAbs(currency, snap.Fifteen))
	fmt.Fprintf(r.out, "  30 Days:        %s %s\n", components.Arrow(snap.Month), asset.FormatAbs(currency, snap.Month))

	if len(frame.State.Series) > 0 {
		first, last := frame.State.Series[0], frame.State.Series[len(frame.State.Series)-1]
		lo, hi := frame.State.Series.Bounds()
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintf(r.out, "HISTORY (%d points, %s to %s)\n", len(frame.State.Series), first.Date, last.Date)
		fmt.Fprintf(r.out, "  Low:            %s\n", asset.Format(currency, lo))
		fmt.Fprintf(r.out, "  High:           %s\n", asset.Format(currency, hi))
	}
}

func (r *ConsoleReporter) printForecast(fc *marketDomain.Forecast, currency *asset.Asset) {
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "AI INVESTMENT ANALYSIS")
	fmt.Fprintf(r.out, "  Today's Outlook:     %s\n", fc.Recommendation)
	fmt.Fprintf(r.out, "  Tomorrow's Forecast: %s\n", fc.Tomorrow)
	for _, h := range fc.Horizons() {
		fmt.Fprintf(r.out, "  %-8s worst %s  average %s  best %s\n", h.Label,
			asset.Format(currency, h.Scenario.WorstCase),
			asset.Format(currency, h.Scenario.AverageCase),
			asset.Format(currency, h.Scenario.BestCase))
	}
	fmt.Fprintf(r.out, "  %s\n", components.Disclaimer)
	fmt.Fprintln(r.out, "================================================================================")
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	if r.format == FormatText {
		fmt.Fprintln(r.out, "")
		fmt.Fprintln(r.out, "Silver Price AI Stopped")
	}
	return nil
}
