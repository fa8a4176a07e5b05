package performance

import (
	"fmt"
	"strings"
	"time"
)

// Period is the closed set of supported lookback windows. Each period
// knows how to resolve its own start date, so there is no string-keyed
// dispatch anywhere downstream.
type Period string

const (
	Period3M        Period = "3m"
	Period6M        Period = "6m"
	Period1Y        Period = "1y"
	Period2Y        Period = "2y"
	Period3Y        Period = "3y"
	Period5Y        Period = "5y"
	PeriodYTD       Period = "ytd"
	PeriodInception Period = "inception"
)

// ParsePeriod validates a period string from the API layer.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Period3M, Period6M, Period1Y, Period2Y, Period3Y, Period5Y, PeriodYTD, PeriodInception:
		return p, nil
	case "":
		return PeriodInception, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Start resolves the period's start date relative to end. The second return
// is false for inception, which has no fixed start.
func (p Period) Start(end time.Time) (time.Time, bool) {
	switch p {
	case Period3M:
		return end.AddDate(0, -3, 0), true
	case Period6M:
		return end.AddDate(0, -6, 0), true
	case Period1Y:
		return end.AddDate(-1, 0, 0), true
	case Period2Y:
		return end.AddDate(-2, 0, 0), true
	case Period3Y:
		return end.AddDate(-3, 0, 0), true
	case Period5Y:
		return end.AddDate(-5, 0, 0), true
	case PeriodYTD:
		return time.Date(end.Year(), 1, 1, 0, 0, 0, 0, end.Location()), true
	default:
		return time.Time{}, false
	}
}

// String returns the canonical label used in results.
func (p Period) String() string {
	return string(p)
}

// yearsBetween measures the span between two dates in fractional years.
func yearsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 365.25
}

// dateOnly truncates a timestamp to its UTC calendar day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
