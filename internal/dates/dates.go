// Package dates provides the calendar helpers the ledger is keyed on:
// day keys (YYYY-MM-DD) and ISO 8601 week labels (YYYY-WW).
// All times are normalized to UTC before a key is extracted, so a
// transaction maps to the same calendar day regardless of the timezone
// it was recorded in.
package dates

import (
	"fmt"
	"time"
)

// DayFormat is the layout of a calendar-day key.
const DayFormat = "2006-01-02"

// DayKey returns the canonical calendar-day key for t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// ParseDay parses a day key back into a UTC midnight instant.
func ParseDay(key string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, key, time.UTC)
}

// WeekLabel returns the ISO 8601 week label (YYYY-WW) for t.
// The year component is the ISO week-year, which can differ from the
// calendar year around January 1st.
func WeekLabel(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}

// WeekLabelForDay returns the week label of a day key, or "" if the key
// is not a valid day key.
func WeekLabelForDay(key string) string {
	day, err := ParseDay(key)
	if err != nil {
		return ""
	}
	return WeekLabel(day)
}

// WeekRange resolves a week label to its Monday and Sunday day keys.
// The Monday of week 1 is derived from January 4th, which by the ISO
// 8601 rule always falls in week 1.
func WeekRange(label string) (start, end string, err error) {
	var year, week int
	if _, err := fmt.Sscanf(label, "%d-%d", &year, &week); err != nil {
		return "", "", fmt.Errorf("invalid week label %q: %w", label, err)
	}
	if week < 1 || week > 53 {
		return "", "", fmt.Errorf("invalid week label %q: week out of range", label)
	}

	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	monday := jan4.AddDate(0, 0, 1-weekday).AddDate(0, 0, (week-1)*7)
	sunday := monday.AddDate(0, 0, 6)

	return DayKey(monday), DayKey(sunday), nil
}
