// Package domain contains the core types for silver market data.
package domain

import (
	"fmt"
	"time"
)

// Session classifies a calendar day for quoting purposes. Markets are
// closed on weekends, so the latest available price is Friday's close.
type Session int

const (
	SessionMidweek Session = iota // Tuesday through Friday
	SessionMonday
	SessionWeekend
)

// SessionAt classifies t using its own location's weekday.
func SessionAt(t time.Time) Session {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return SessionWeekend
	case time.Monday:
		return SessionMonday
	default:
		return SessionMidweek
	}
}

// IsWeekend reports whether the market is closed for the whole day.
func (s Session) IsWeekend() bool {
	return s == SessionWeekend
}

func (s Session) String() string {
	switch s {
	case SessionWeekend:
		return "weekend"
	case SessionMonday:
		return "monday"
	default:
		return "midweek"
	}
}

func (s Session) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Session) UnmarshalText(b []byte) error {
	switch string(b) {
	case "weekend":
		*s = SessionWeekend
	case "monday":
		*s = SessionMonday
	case "midweek":
		*s = SessionMidweek
	default:
		return fmt.Errorf("unknown session %q", b)
	}
	return nil
}
