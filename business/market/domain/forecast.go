package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Scenario is a projected price range. No ordering between cases is enforced.
type Scenario struct {
	BestCase    decimal.Decimal `json:"bestCase" yaml:"best_case"`
	WorstCase   decimal.Decimal `json:"worstCase" yaml:"worst_case"`
	AverageCase decimal.Decimal `json:"averageCase" yaml:"average_case"`
}

// Forecast is a generated investment outlook.
type Forecast struct {
	Recommendation string   `json:"recommendation" yaml:"recommendation"`
	Tomorrow       string   `json:"tomorrow" yaml:"tomorrow"`
	OneYear        Scenario `json:"oneYear" yaml:"one_year"`
	FiveYear       Scenario `json:"fiveYear" yaml:"five_year"`
	TenYear        Scenario `json:"tenYear" yaml:"ten_year"`
}

// Horizon is a labelled scenario for rendering.
type Horizon struct {
	Label    string
	Scenario Scenario
}

// Horizons returns the scenarios in display order.
func (f *Forecast) Horizons() []Horizon {
	return []Horizon{
		{Label: "1 Year", Scenario: f.OneYear},
		{Label: "5 Year", Scenario: f.FiveYear},
		{Label: "10 Year", Scenario: f.TenYear},
	}
}

// Validate rejects forecasts missing their narrative fields.
func (f *Forecast) Validate() error {
	if f == nil {
		return errors.New("forecast is nil")
	}
	if strings.TrimSpace(f.Recommendation) == "" {
		return errors.New("forecast recommendation is empty")
	}
	if strings.TrimSpace(f.Tomorrow) == "" {
		return errors.New("forecast tomorrow outlook is empty")
	}
	return nil
}
