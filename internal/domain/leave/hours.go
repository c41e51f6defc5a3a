package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestHours derives the default cost of a request from its inclusive date
// range. Callers may supply explicit hours instead; once stored on a request
// the value is never recomputed.
func RequestHours(start, end time.Time, hoursPerDay decimal.Decimal) (decimal.Decimal, error) {
	if end.Before(start) {
		return decimal.Zero, invalidField("endDate", "must be on or after startDate")
	}
	days := int64(end.Sub(start).Hours()/24) + 1
	return hoursPerDay.Mul(decimal.NewFromInt(days)), nil
}

func advanceOnePeriod(freq AccrualFrequency, t time.Time) time.Time {
	switch freq {
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqFortnightly:
		return t.AddDate(0, 0, 14)
	case FreqMonthly:
		return t.AddDate(0, 1, 0)
	case FreqAnnually:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

// PeriodsElapsed counts whole accrual periods between from and to.
func PeriodsElapsed(freq AccrualFrequency, from, to time.Time) int {
	if !freq.Valid() || !from.Before(to) {
		return 0
	}
	periods := 0
	cur := from
	for {
		next := advanceOnePeriod(freq, cur)
		if next.After(to) {
			return periods
		}
		cur = next
		periods++
	}
}

// AdvancePeriods moves a timestamp forward by n whole accrual periods.
func AdvancePeriods(freq AccrualFrequency, from time.Time, n int) time.Time {
	cur := from
	for i := 0; i < n; i++ {
		cur = advanceOnePeriod(freq, cur)
	}
	return cur
}
