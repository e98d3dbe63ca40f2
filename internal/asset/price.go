package asset

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Price is the rate of one unit of Base expressed in Quote,
// e.g. 95.50 INR per gram of XAG.
type Price struct {
	base      *Asset
	quote     *Asset
	rate      decimal.Decimal
	timestamp time.Time
}

// NewPrice creates a price. Panics on nil assets or a negative rate.
func NewPrice(base, quote *Asset, rate decimal.Decimal, timestamp time.Time) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}
	return Price{base: base, quote: quote, rate: rate, timestamp: timestamp}
}

func (p Price) Base() *Asset {
	return p.base
}

func (p Price) Quote() *Asset {
	return p.quote
}

// Rate returns the quote amount per base unit.
func (p Price) Rate() decimal.Decimal {
	return p.rate
}

// Timestamp returns when the price was observed.
func (p Price) Timestamp() time.Time {
	return p.timestamp
}

func (p Price) IsZero() bool {
	return p.base == nil || p.rate.IsZero()
}

// Age returns how long ago the price was observed relative to now.
func (p Price) Age(now time.Time) time.Duration {
	return now.Sub(p.timestamp)
}

// String renders e.g. "₹95.50/g".
func (p Price) String() string {
	if p.base == nil || p.quote == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s/%s", Format(p.quote, p.rate), p.base.Sign())
}
