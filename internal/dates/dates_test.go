package dates_test

import (
	"testing"
	"time"

	"github.com/robbyyapr/duwit/internal/dates"
)

func TestDayKeyNormalizesToUTC(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)

	// 2024-06-02 05:30 WIB is still 2024-06-01 in UTC.
	local := time.Date(2024, time.June, 2, 5, 30, 0, 0, jakarta)
	if got := dates.DayKey(local); got != "2024-06-01" {
		t.Errorf("expected 2024-06-01, got %s", got)
	}

	utc := time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC)
	if got := dates.DayKey(utc); got != "2024-06-02" {
		t.Errorf("expected 2024-06-02, got %s", got)
	}
}

func TestWeekLabel(t *testing.T) {
	cases := []struct {
		day  string
		want string
	}{
		{"2024-06-03", "2024-23"}, // a Monday mid-year
		{"2024-06-09", "2024-23"}, // the Sunday of the same week
		{"2021-01-01", "2020-53"}, // Friday; ISO week-year is still 2020
		{"2024-12-30", "2025-01"}, // Monday; ISO week-year already 2025
		{"2026-01-04", "2026-01"},
	}
	for _, c := range cases {
		day, err := dates.ParseDay(c.day)
		if err != nil {
			t.Fatalf("parse %s: %v", c.day, err)
		}
		if got := dates.WeekLabel(day); got != c.want {
			t.Errorf("WeekLabel(%s) = %s, want %s", c.day, got, c.want)
		}
	}
}

func TestWeekLabelForDayInvalid(t *testing.T) {
	if got := dates.WeekLabelForDay("not-a-date"); got != "" {
		t.Errorf("expected empty label, got %q", got)
	}
}

func TestWeekRange(t *testing.T) {
	cases := []struct {
		label string
		start string
		end   string
	}{
		{"2024-23", "2024-06-03", "2024-06-09"},
		{"2020-53", "2020-12-28", "2021-01-03"},
		{"2025-01", "2024-12-30", "2025-01-05"},
		{"2026-01", "2025-12-29", "2026-01-04"},
	}
	for _, c := range cases {
		start, end, err := dates.WeekRange(c.label)
		if err != nil {
			t.Fatalf("WeekRange(%s): %v", c.label, err)
		}
		if start != c.start || end != c.end {
			t.Errorf("WeekRange(%s) = %s..%s, want %s..%s", c.label, start, end, c.start, c.end)
		}
	}
}

func TestWeekRangeRoundTrip(t *testing.T) {
	// Every day of a labelled week must map back to that label.
	start, _, err := dates.WeekRange("2024-23")
	if err != nil {
		t.Fatal(err)
	}
	day, _ := dates.ParseDay(start)
	for i := 0; i < 7; i++ {
		if got := dates.WeekLabel(day.AddDate(0, 0, i)); got != "2024-23" {
			t.Errorf("day %d of week maps to %s", i, got)
		}
	}
}

func TestWeekRangeInvalid(t *testing.T) {
	for _, label := range []string{"garbage", "2024-00", "2024-54", ""} {
		if _, _, err := dates.WeekRange(label); err == nil {
			t.Errorf("expected error for %q", label)
		}
	}
}
