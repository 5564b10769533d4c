package settlement

import (
	"fmt"
	"time"
)

const periodKeyLayout = "January 2006"

// PeriodKeyFor returns the calendar-month label used to address settlement
// periods, e.g. "January 2026".
func PeriodKeyFor(t time.Time) string {
	return t.UTC().Format(periodKeyLayout)
}

// ParsePeriodKey validates a period label and returns the first instant of
// that month in UTC.
func ParsePeriodKey(key string) (time.Time, error) {
	t, err := time.Parse(periodKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	return t, nil
}
