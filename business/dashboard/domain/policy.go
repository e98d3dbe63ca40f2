// Package domain contains the dashboard view model: display policy and view state.
package domain

import (
	"fmt"
	"time"

	marketDomain "github.com/fd1az/silver-ai/business/market/domain"
)

// ChangeLabel annotates the daily change next to the price.
type ChangeLabel string

const (
	ChangeLabelDaily    ChangeLabel = "(24h)"
	ChangeLabelVsFriday ChangeLabel = "(vs Friday)"
	ChangeLabelHidden   ChangeLabel = "hidden"
)

// Hidden reports whether the change indicator must not be shown.
func (l ChangeLabel) Hidden() bool {
	return l == ChangeLabelHidden
}

// DisplayPolicy is the day-dependent wording of the dashboard.
type DisplayPolicy struct {
	Session          marketDomain.Session `json:"session"`
	SubtitleTemplate string               `json:"subtitleTemplate"`
	Freshness        string               `json:"freshness"`
	ChangeLabel      ChangeLabel          `json:"changeLabel"`
	SuppressChange   bool                 `json:"suppressChange"`
}

// Subtitle fills the template with region.
func (p DisplayPolicy) Subtitle(region string) string {
	return fmt.Sprintf(p.SubtitleTemplate, region)
}

// Resolve returns the policy for the calendar day of now, in now's location.
func Resolve(now time.Time) DisplayPolicy {
	session := marketDomain.SessionAt(now)

	switch session {
	case marketDomain.SessionWeekend:
		return DisplayPolicy{
			Session:          session,
			SubtitleTemplate: "Last closing price (Friday) for %s",
			Freshness:        "Last updated: Friday's close",
			ChangeLabel:      ChangeLabelHidden,
			SuppressChange:   true,
		}
	case marketDomain.SessionMonday:
		return livePolicy(session, ChangeLabelVsFriday)
	default:
		return livePolicy(session, ChangeLabelDaily)
	}
}

func livePolicy(session marketDomain.Session, label ChangeLabel) DisplayPolicy {
	return DisplayPolicy{
		Session:          session,
		SubtitleTemplate: "Live price for %s",
		Freshness:        "Last updated: Just now",
		ChangeLabel:      label,
	}
}
