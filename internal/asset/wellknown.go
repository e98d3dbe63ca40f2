package asset

// Well-known assets.
var (
	XAG = NewCommodity("XAG", "Silver", "g", 2)

	INR = NewFiat("INR", "Indian Rupee", "₹", 2)
	USD = NewFiat("USD", "US Dollar", "$", 2)
	EUR = NewFiat("EUR", "Euro", "€", 2)
	GBP = NewFiat("GBP", "Pound Sterling", "£", 2)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(XAG)

	r.Register(INR)
	r.Register(USD)
	r.Register(EUR)
	r.Register(GBP)

	return r
}
