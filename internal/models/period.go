package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MonthPeriod spans one billing month from its first to its last day
type MonthPeriod struct {
	Start time.Time
	End   time.Time
}

// ParseBillingMonth accepts a billing month as "MM.YYYY" or "YYYY-MM"
// and returns the matching period. The end day is the true last day of
// the month, December and leap February included.
func ParseBillingMonth(s string) (MonthPeriod, error) {
	s = strings.TrimSpace(s)
	var month, year int
	var err error

	switch {
	case strings.Contains(s, "."):
		parts := strings.SplitN(s, ".", 2)
		month, err = strconv.Atoi(parts[0])
		if err == nil {
			year, err = strconv.Atoi(parts[1])
		}
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		year, err = strconv.Atoi(parts[0])
		if err == nil {
			month, err = strconv.Atoi(parts[1])
		}
	default:
		return MonthPeriod{}, fmt.Errorf("billing month %q: expected MM.YYYY or YYYY-MM", s)
	}
	if err != nil {
		return MonthPeriod{}, fmt.Errorf("billing month %q: %w", s, err)
	}
	if month < 1 || month > 12 {
		return MonthPeriod{}, fmt.Errorf("billing month %q: month out of range", s)
	}
	if year < 1000 || year > 9999 {
		return MonthPeriod{}, fmt.Errorf("billing month %q: year out of range", s)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return MonthPeriod{Start: start, End: end}, nil
}

// MonthDot renders the period as "MM.YYYY"
func (p MonthPeriod) MonthDot() string {
	return p.Start.Format("01.2006")
}

// MonthISO renders the period as "YYYY-MM"
func (p MonthPeriod) MonthISO() string {
	return p.Start.Format("2006-01")
}

// Contains reports whether t falls inside the period
func (p MonthPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End.AddDate(0, 0, 1).Add(-time.Nanosecond))
}
