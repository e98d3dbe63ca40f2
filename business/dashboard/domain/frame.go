package domain

import "time"

// Frame is what publishers render: a view state plus the display policy,
// region and currency resolved when it was published.
type Frame struct {
	State    ViewState     `json:"state"`
	Policy   DisplayPolicy `json:"policy"`
	Region   string        `json:"region"`
	Currency string        `json:"currency"`
	At       time.Time     `json:"at"`
}

// NewFrame resolves the policy for at.
func NewFrame(state ViewState, region, currency string, at time.Time) Frame {
	return Frame{
		State:    state,
		Policy:   Resolve(at),
		Region:   region,
		Currency: currency,
		At:       at,
	}
}

// Subtitle is the header line for the frame.
func (f Frame) Subtitle() string {
	return f.Policy.Subtitle(f.Region)
}
