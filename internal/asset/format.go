package asset

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is rendered for missing values.
const NotAvailable = "N/A"

// Format renders an amount of a fiat asset with its sign and fixed decimals,
// e.g. "₹95.50". Negative amounts keep a leading minus: "-₹1.20".
func Format(a *Asset, d decimal.Decimal) string {
	if a == nil {
		return NotAvailable
	}

	body := d.Abs().StringFixed(int32(a.decimals))
	var sb strings.Builder
	if d.IsNegative() {
		sb.WriteByte('-')
	}
	if a.IsFiat() {
		sb.WriteString(a.sign)
		sb.WriteString(body)
		return sb.String()
	}
	sb.WriteString(body)
	sb.WriteByte(' ')
	sb.WriteString(a.sign)
	return sb.String()
}

// FormatAbs renders the magnitude only, used next to an up/down arrow.
func FormatAbs(a *Asset, d decimal.Decimal) string {
	return Format(a, d.Abs())
}
