package clock

import (
	"time"
)

// Clock is the single time source for gating decisions. The ledger query and
// the day-boundary computation must use the same clock, otherwise a purchase
// can be gated against yesterday's consumption.
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock pinned to the named timezone. An empty or
// invalid name falls back to the process-local zone.
func NewSystemClock(tz string) Clock {
	loc := time.Local
	if tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}
	return &systemClock{loc: loc}
}

func (c *systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
