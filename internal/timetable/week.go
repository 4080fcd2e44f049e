package timetable

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// WeekStart returns the Monday of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	day := DateOnly(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the exclusive end of the week beginning at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return DateOnly(weekStart).AddDate(0, 0, 7)
}

// InWeek reports whether date falls inside the week beginning at weekStart.
func InWeek(weekStart, date time.Time) bool {
	start := DateOnly(weekStart)
	d := DateOnly(date)
	return !d.Before(start) && d.Before(WeekEnd(start))
}

// DateInWeek returns the calendar date of weekday d in the week beginning at weekStart.
func DateInWeek(weekStart time.Time, d time.Weekday) time.Time {
	offset := (int(d) + 6) % 7
	return DateOnly(weekStart).AddDate(0, 0, offset)
}

// SameDate compares calendar days ignoring time of day.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
