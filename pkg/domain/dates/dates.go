// Package dates parses sheet dates and performs day-granular arithmetic.
//
// Every time.Time returned by this package is midnight UTC of its calendar day, so
// values can be compared with == and used as map keys.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Layout is the textual form used when writing dates back to tables
const Layout = "2006/01/02"

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current local time
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock time.Time

// Now returns the fixed instant
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Today returns the current calendar day of the clock
func Today(clock Clock) time.Time {
	if clock == nil {
		clock = SystemClock{}
	}
	return Normalize(clock.Now())
}

// Normalize truncates t to its calendar day as midnight UTC. The day is taken from t's own location.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a year/month/day date such as "2026/1/5", "2026-01-05" or "2026.01.05".
// Any time-of-day suffix is discarded.
func Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	// Drop the time part: "2026/01/05 13:45:00" or RFC3339 "2026-01-05T13:45:00Z"
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date: %q (expected YYYY/MM/DD)", raw)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return time.Time{}, fmt.Errorf("invalid year in date: %q", raw)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month in date: %q", raw)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day in date: %q", raw)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date rolls Feb 30 over into March; reject instead
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("date does not exist: %q", raw)
	}
	return t, nil
}

// ParseOrWarn parses a date, logging a warning and returning false when it is invalid
func ParseOrWarn(log logrus.FieldLogger, raw string, fields logrus.Fields) (time.Time, bool) {
	t, err := Parse(raw)
	if err != nil {
		log.WithFields(fields).WithField("value", raw).Warnf("skipping row: %v", err)
		return time.Time{}, false
	}
	return t, true
}

// Format renders a date as YYYY/MM/DD
func Format(t time.Time) string {
	return t.Format(Layout)
}

// AddDays shifts a day by n calendar days
func AddDays(t time.Time, n int) time.Time {
	return Normalize(t).AddDate(0, 0, n)
}

// Range returns n consecutive days starting at start
func Range(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, n)
	for i := range days {
		days[i] = AddDays(start, i)
	}
	return days
}
