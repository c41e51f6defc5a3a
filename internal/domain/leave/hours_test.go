package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRequestHours(t *testing.T) {
	eight := decimal.NewFromInt(8)
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	hours, err := RequestHours(start, start, eight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hours.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("expected 8 hours for a single day, got %s", hours)
	}

	end := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	hours, err = RequestHours(start, end, eight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hours.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("expected 24 hours for three days, got %s", hours)
	}
}

func TestRequestHoursInvalidRange(t *testing.T) {
	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)

	if _, err := RequestHours(start, end, decimal.NewFromInt(8)); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestPeriodsElapsed(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		freq AccrualFrequency
		to   time.Time
		want int
	}{
		{FreqWeekly, from.AddDate(0, 0, 6), 0},
		{FreqWeekly, from.AddDate(0, 0, 7), 1},
		{FreqWeekly, from.AddDate(0, 0, 20), 2},
		{FreqFortnightly, from.AddDate(0, 0, 28), 2},
		{FreqMonthly, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 2},
		{FreqMonthly, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), 1},
		{FreqAnnually, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{FreqAnnually, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tc := range cases {
		if got := PeriodsElapsed(tc.freq, from, tc.to); got != tc.want {
			t.Errorf("%s until %s: expected %d periods, got %d", tc.freq, tc.to.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestPeriodsElapsedSameInstant(t *testing.T) {
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := PeriodsElapsed(FreqWeekly, at, at); got != 0 {
		t.Fatalf("expected 0 periods for identical timestamps, got %d", got)
	}
}

func TestAdvancePeriods(t *testing.T) {
	from := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AdvancePeriods(FreqMonthly, from, 2)
	want := from.AddDate(0, 1, 0).AddDate(0, 1, 0)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	got = AdvancePeriods(FreqFortnightly, from, 3)
	if !got.Equal(from.AddDate(0, 0, 42)) {
		t.Fatalf("expected %s, got %s", from.AddDate(0, 0, 42), got)
	}
}
