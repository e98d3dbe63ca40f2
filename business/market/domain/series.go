package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by history points.
const DateLayout = "2006-01-02"

// HistoricalPoint is one daily price.
type HistoricalPoint struct {
	Date  string          `json:"date" yaml:"date"`
	Price decimal.Decimal `json:"price" yaml:"price"`
}

// Time parses Date. The zero time is returned for malformed dates.
func (p HistoricalPoint) Time() time.Time {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Series is a daily price history, oldest first.
type Series []HistoricalPoint

// Anchor returns a copy whose last point carries current. The source's
// final value is never trusted; the fetched quote is authoritative.
func (s Series) Anchor(current decimal.Decimal) Series {
	if len(s) == 0 {
		return s
	}
	out := make(Series, len(s))
	copy(out, s)
	out[len(out)-1].Price = current
	return out
}

// First returns the oldest price, or zero for an empty series.
func (s Series) First() decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	return s[0].Price
}

// Last returns the newest price, or zero for an empty series.
func (s Series) Last() decimal.Decimal {
	if len(s) == 0 {
		return decimal.Zero
	}
	return s[len(s)-1].Price
}

// Bounds returns the lowest and highest prices.
func (s Series) Bounds() (lo, hi decimal.Decimal) {
	for i, p := range s {
		if i == 0 || p.Price.LessThan(lo) {
			lo = p.Price
		}
		if i == 0 || p.Price.GreaterThan(hi) {
			hi = p.Price
		}
	}
	return lo, hi
}

// Validate checks dates parse, are strictly increasing and prices are not negative.
func (s Series) Validate() error {
	var prev time.Time
	for i, p := range s {
		t, err := time.Parse(DateLayout, p.Date)
		if err != nil {
			return fmt.Errorf("point %d: invalid date %q", i, p.Date)
		}
		if i > 0 && !t.After(prev) {
			return fmt.Errorf("point %d: date %s not after %s", i, p.Date, prev.Format(DateLayout))
		}
		if p.Price.IsNegative() {
			return fmt.Errorf("point %d: negative price %s", i, p.Price)
		}
		prev = t
	}
	return nil
}

// TrendSummary describes the move across a window of days.
func (s Series) TrendSummary(current decimal.Decimal, days int) string {
	if len(s) == 0 {
		return fmt.Sprintf("The current price is %s.", current.String())
	}
	return fmt.Sprintf("The price started at %s %d days ago and is now %s.",
		s.First().String(), days, current.String())
}
