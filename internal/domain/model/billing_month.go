package model

import (
	"fmt"
	"time"
)

// BillingMonth identifies a calendar month, e.g. "2025-05".
type BillingMonth struct {
	Year  int
	Month time.Month
}

const billingMonthLayout = "2006-01"

// ParseBillingMonth parses the "YYYY-MM" form.
func ParseBillingMonth(s string) (BillingMonth, error) {
	t, err := time.Parse(billingMonthLayout, s)
	if err != nil {
		return BillingMonth{}, fmt.Errorf("invalid billing month %q: %w", s, err)
	}
	return BillingMonth{Year: t.Year(), Month: t.Month()}, nil
}

// PreviousBillingMonth returns the month before the one containing now in loc.
func PreviousBillingMonth(now time.Time, loc *time.Location) BillingMonth {
	local := now.In(loc)
	prev := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0)
	return BillingMonth{Year: prev.Year(), Month: prev.Month()}
}

func (m BillingMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Range returns [start, end) of the month in loc.
func (m BillingMonth) Range(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}
