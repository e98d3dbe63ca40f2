// Package asset describes the commodities and currencies the dashboard prices.
// Amounts are decimal.Decimal; an Asset only carries display metadata.
package asset

import "fmt"

// Kind separates priced commodities from the currencies they are quoted in.
type Kind uint8

const (
	KindFiat Kind = iota
	KindCommodity
)

func (k Kind) String() string {
	switch k {
	case KindCommodity:
		return "commodity"
	default:
		return "fiat"
	}
}

// Asset is reference metadata. The symbol is its identity.
type Asset struct {
	symbol   string
	name     string
	sign     string // currency sign for fiat, unit for commodities
	decimals uint8
	kind     Kind
}

// NewFiat creates a currency asset, e.g. NewFiat("INR", "Indian Rupee", "₹", 2).
func NewFiat(code, name, sign string, decimals uint8) *Asset {
	return newAsset(code, name, sign, decimals, KindFiat)
}

// NewCommodity creates a commodity quoted per unit, e.g. grams.
func NewCommodity(symbol, name, unit string, decimals uint8) *Asset {
	return newAsset(symbol, name, unit, decimals, KindCommodity)
}

func newAsset(symbol, name, sign string, decimals uint8, kind Kind) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 8 {
		panic(fmt.Sprintf("asset: suspicious decimals %d for %s", decimals, symbol))
	}
	return &Asset{symbol: symbol, name: name, sign: sign, decimals: decimals, kind: kind}
}

// Symbol returns the code, e.g. "INR" or "XAG".
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Sign returns the currency sign, or the unit for commodities.
func (a *Asset) Sign() string {
	return a.sign
}

// Decimals returns the number of display decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

func (a *Asset) Kind() Kind {
	return a.kind
}

func (a *Asset) IsFiat() bool {
	return a.kind == KindFiat
}

func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two Assets by symbol.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.symbol == other.symbol
}
