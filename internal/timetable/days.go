package timetable

import (
	"encoding/json"
	"strings"
	"time"
)

// DaySet is a bit set of weekdays.
type DaySet uint8

// weekOrder lists weekdays Monday first, the order used for display.
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

var shortDayNames = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// DaysOf builds a set from individual weekdays.
func DaysOf(days ...time.Weekday) DaySet {
	var set DaySet
	for _, d := range days {
		set = set.With(d)
	}
	return set
}

// With returns the set including d.
func (s DaySet) With(d time.Weekday) DaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s DaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Empty reports whether no weekday is set.
func (s DaySet) Empty() bool {
	return s == 0
}

// Days lists members Monday first.
func (s DaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, d := range weekOrder {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

// String renders the set as "Mon/Wed/Fri".
func (s DaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, shortDayNames[d])
	}
	return strings.Join(names, "/")
}

// MarshalJSON encodes the set as a list of short day names.
func (s DaySet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, shortDayNames[d])
	}
	return json.Marshal(names)
}

// ShortDay returns the three-letter name of a weekday.
func ShortDay(d time.Weekday) string {
	return shortDayNames[d]
}

var (
	mon     = DaysOf(time.Monday)
	tue     = DaysOf(time.Tuesday)
	wed     = DaysOf(time.Wednesday)
	thu     = DaysOf(time.Thursday)
	fri     = DaysOf(time.Friday)
	sat     = DaysOf(time.Saturday)
	sun     = DaysOf(time.Sunday)
	weekday = DaysOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
)

var dayTokens = map[string]DaySet{
	"M": mon, "MON": mon, "MONDAY": mon,
	"T": tue, "TUE": tue, "TUES": tue, "TUESDAY": tue,
	"W": wed, "WED": wed, "WEDNESDAY": wed,
	"TH": thu, "R": thu, "THU": thu, "THUR": thu, "THURS": thu, "THURSDAY": thu,
	"F": fri, "FRI": fri, "FRIDAY": fri,
	"S": sat, "SA": sat, "SAT": sat, "SATURDAY": sat,
	"SU": sun, "U": sun, "SUN": sun, "SUNDAY": sun,

	"TTH":     tue | thu,
	"MWF":     mon | wed | fri,
	"MW":      mon | wed,
	"TF":      tue | fri,
	"MTWTHF":  weekday,
	"MTWTHFS": weekday | sat,
}

// DayPattern is the parsed form of a stored day code.
type DayPattern struct {
	Raw          string   `json:"raw"`
	Days         DaySet   `json:"days"`
	Unrecognized []string `json:"unrecognized,omitempty"`
}

// Matched reports whether at least one weekday was recognised.
func (p DayPattern) Matched() bool {
	return !p.Days.Empty()
}

// ParseDayPattern canonicalises a day code. "/"-joined parts are handled independently and
// unknown parts are kept in Unrecognized without affecting the rest.
func ParseDayPattern(raw string) DayPattern {
	pattern := DayPattern{Raw: raw}
	for _, part := range strings.Split(raw, "/") {
		token := strings.ToUpper(strings.TrimSpace(part))
		if token == "" {
			continue
		}
		if set, ok := dayTokens[token]; ok {
			pattern.Days |= set
			continue
		}
		pattern.Unrecognized = append(pattern.Unrecognized, strings.TrimSpace(part))
	}
	return pattern
}

// ExpandDays returns the weekdays denoted by a day code. Unknown codes yield an empty set.
func ExpandDays(token string) DaySet {
	return ParseDayPattern(token).Days
}

// ParseWeekday resolves a token that must denote exactly one weekday.
func ParseWeekday(token string) (time.Weekday, bool) {
	days := ExpandDays(token).Days()
	if len(days) != 1 {
		return 0, false
	}
	return days[0], true
}

var sectionSuffixes = []string{"_Lab", "_Lec", "_G1", "_G2", " G1", " G2"}

// NormalizeSection strips cosmetic suffixes used to split a section into lab/lecture groups.
func NormalizeSection(section string) string {
	s := strings.TrimSpace(section)
	for {
		stripped := false
		for _, suffix := range sectionSuffixes {
			if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
				s = strings.TrimSpace(s[:len(s)-len(suffix)])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}
