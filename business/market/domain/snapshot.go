package domain

import "github.com/shopspring/decimal"

// Lookbacks in trading days from the newest point.
const (
	lookbackYesterday = 1
	lookbackWeek      = 7
	lookbackFifteen   = 15
)

// PriceSnapshot is the current price plus signed deltas (current minus the
// reference price). Year is always zero: the history only spans a month.
type PriceSnapshot struct {
	Current   decimal.Decimal `json:"current" yaml:"current"`
	Yesterday decimal.Decimal `json:"yesterday" yaml:"yesterday"`
	Week      decimal.Decimal `json:"week" yaml:"week"`
	Fifteen   decimal.Decimal `json:"fifteen" yaml:"fifteen"`
	Month     decimal.Decimal `json:"month" yaml:"month"`
	Year      decimal.Decimal `json:"year" yaml:"year"`
}

// Compute derives a snapshot from the current price and its history.
// Short histories fall back to the oldest point, except Yesterday which
// is zero without at least two points.
func Compute(current decimal.Decimal, history Series) PriceSnapshot {
	snap := PriceSnapshot{
		Current:   current,
		Yesterday: decimal.Zero,
		Week:      decimal.Zero,
		Fifteen:   decimal.Zero,
		Month:     decimal.Zero,
		Year:      decimal.Zero,
	}
	if len(history) == 0 {
		return snap
	}

	if len(history) > lookbackYesterday {
		snap.Yesterday = current.Sub(back(history, lookbackYesterday))
	}
	snap.Week = current.Sub(back(history, lookbackWeek))
	snap.Fifteen = current.Sub(back(history, lookbackFifteen))
	snap.Month = current.Sub(history[0].Price)

	return snap
}

// back returns the price n points before the newest one, or the oldest
// price when the series is too short.
func back(history Series, n int) decimal.Decimal {
	if len(history) > n {
		return history[len(history)-1-n].Price
	}
	return history[0].Price
}
