package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// DefaultDuration is used when a session's time range cannot be parsed.
const DefaultDuration = 60

// ParseTime converts "H:MM" with an optional AM/PM suffix into minutes after midnight.
// The boolean is false for malformed input; the returned minutes are then 0 and must not be
// read as midnight.
func ParseTime(text string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	hourPart, minutePart, found := strings.Cut(s, ":")
	if !found || !isDigits(hourPart) || len(minutePart) != 2 || !isDigits(minutePart) {
		return 0, false
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute > 59 {
		return 0, false
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return 0, false
		}
	default:
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "PM" {
			hour += 12
		}
	}

	return hour*60 + minute, true
}

// FormatTime renders minutes after midnight as a 12-hour clock string, e.g. "1:05 PM".
func FormatTime(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	hour := minutes / 60
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minutes%60, suffix)
}

func isDigits(s string) bool {
	if s == "" || len(s) > 2 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TimeRange is a half-open interval [Start, End) in minutes after midnight.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParseTimeRange parses "start - end". Both ends must parse and End must be after Start.
func ParseTimeRange(text string) (TimeRange, bool) {
	normalized := strings.NewReplacer("–", "-", "—", "-").Replace(text)
	left, right, found := strings.Cut(normalized, "-")
	if !found {
		upper := strings.ToUpper(normalized)
		idx := strings.Index(upper, " TO ")
		if idx < 0 {
			return TimeRange{}, false
		}
		left, right = normalized[:idx], normalized[idx+4:]
	}
	start, ok := ParseTime(left)
	if !ok {
		return TimeRange{}, false
	}
	end, ok := ParseTime(right)
	if !ok || end <= start {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

// Duration returns the length of the range in minutes.
func (r TimeRange) Duration() int {
	return r.End - r.Start
}

// MoveTo shifts the range to a new start keeping its duration.
func (r TimeRange) MoveTo(start int) TimeRange {
	return TimeRange{Start: start, End: start + r.Duration()}
}

// Overlaps reports whether two half-open ranges intersect. Touching edges do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start < other.End && r.End > other.Start
}

// String renders the range as "start - end".
func (r TimeRange) String() string {
	return FormatTime(r.Start) + " - " + FormatTime(r.End)
}

// Grid describes the displayable day split into fixed-width slots.
type Grid struct {
	DayStart    int
	DayEnd      int
	SlotMinutes int
}

// DefaultGrid is 07:00 to 21:00 in 30 minute slots.
func DefaultGrid() Grid {
	return Grid{DayStart: 7 * 60, DayEnd: 21 * 60, SlotMinutes: 30}
}

// NewGrid builds a grid from clock strings, falling back to the default for anything unparseable.
func NewGrid(dayStart, dayEnd string, slotMinutes int) Grid {
	grid := DefaultGrid()
	if start, ok := ParseTime(dayStart); ok {
		grid.DayStart = start
	}
	if end, ok := ParseTime(dayEnd); ok && end > grid.DayStart {
		grid.DayEnd = end
	}
	if slotMinutes > 0 {
		grid.SlotMinutes = slotMinutes
	}
	return grid
}

// Day returns the whole displayable day as a range.
func (g Grid) Day() TimeRange {
	return TimeRange{Start: g.DayStart, End: g.DayEnd}
}

// Slots lists the start minute of every slot in the grid.
func (g Grid) Slots() []int {
	if g.SlotMinutes <= 0 || g.DayEnd <= g.DayStart {
		return nil
	}
	slots := make([]int, 0, (g.DayEnd-g.DayStart)/g.SlotMinutes)
	for m := g.DayStart; m < g.DayEnd; m += g.SlotMinutes {
		slots = append(slots, m)
	}
	return slots
}
