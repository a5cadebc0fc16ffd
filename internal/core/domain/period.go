package domain

import (
	"fmt"
	"time"
)

// Period identifies one dues month. It replaces the ad hoc "2025-03-..." string
// encoding with a structured year/month pair.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ParsePeriod reads the "YYYY-MM" wire format.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: period must be YYYY-MM, got %q", ErrValidation, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Valid reports whether the period is a real year-month.
func (p Period) Valid() bool {
	return p.Year >= 1970 && p.Year <= 9999 && p.Month >= time.January && p.Month <= time.December
}

// String renders the "YYYY-MM" wire format.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// DueDate returns the obligation due date for this period. day is clamped to
// the last day of the month so February never overflows into March.
func (p Period) DueDate(day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following period.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}
