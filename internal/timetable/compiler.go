package timetable

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// Kind tags the variant of an EffectiveSession.
type Kind string

const (
	KindBase         Kind = "base"
	KindOverridden   Kind = "overridden"
	KindMakeup       Kind = "makeup"
	KindSpecialEvent Kind = "special_event"
)

const (
	makeupKeyPrefix = "makeup:"
	eventKeyPrefix  = "event:"
)

// EffectiveSession is one entry of the compiled weekly view. Base and overridden entries are keyed
// by allocation id; synthetic entries use prefixed keys so they never collide with real ids.
type EffectiveSession struct {
	Key            string     `json:"key"`
	Kind           Kind       `json:"kind"`
	AllocationID   string     `json:"allocation_id,omitempty"`
	ScheduleID     string     `json:"schedule_id,omitempty"`
	CourseCode     string     `json:"course_code,omitempty"`
	CourseName     string     `json:"course_name,omitempty"`
	Section        string     `json:"section,omitempty"`
	Day            string     `json:"day"`
	Time           string     `json:"time"`
	Building       string     `json:"building"`
	Room           string     `json:"room"`
	TeacherID      string     `json:"teacher_id,omitempty"`
	TeacherName    string     `json:"teacher_name,omitempty"`
	College        string     `json:"college,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	Draggable      bool       `json:"draggable"`
	HasOverride    bool       `json:"has_override"`
	OverrideID     string     `json:"override_id,omitempty"`
	OverrideNote   string     `json:"override_note,omitempty"`
	IsMakeup       bool       `json:"is_makeup"`
	MakeupID       string     `json:"makeup_id,omitempty"`
	IsSpecialEvent bool       `json:"is_special_event"`
	EventID        string     `json:"event_id,omitempty"`
	AbsentDates    []string   `json:"absent_dates,omitempty"`
}

// Days expands the session's day code.
func (s EffectiveSession) Days() DaySet {
	return ExpandDays(s.Day)
}

// Range parses the session's time range.
func (s EffectiveSession) Range() (TimeRange, bool) {
	return ParseTimeRange(s.Time)
}

// OccursOn reports whether the session takes place on date. Dated entries match their own date,
// recurring ones match by weekday.
func (s EffectiveSession) OccursOn(date time.Time) bool {
	if s.Date != nil {
		return SameDate(*s.Date, date)
	}
	return s.Days().Has(date.Weekday())
}

// CompileInput holds everything the compiler merges for one week.
type CompileInput struct {
	WeekStart   time.Time
	Grid        Grid
	Allocations []models.Allocation
	Overrides   []models.Override
	Absences    []models.Absence
	Makeups     []models.MakeupRequest
	Events      []models.SpecialEvent
}

// Compile merges base allocations with the week's overrides, approved makeups and special events.
// It never mutates its input and returns entries in a stable order: allocations in input order,
// then makeups, then events. Filtering by day or slot is left to the caller.
func Compile(in CompileInput) []EffectiveSession {
	grid := in.Grid
	if grid.SlotMinutes == 0 {
		grid = DefaultGrid()
	}
	hasWeek := !in.WeekStart.IsZero()

	overrides := make(map[string]models.Override, len(in.Overrides))
	for _, o := range in.Overrides {
		if hasWeek && !SameDate(o.WeekStart, in.WeekStart) {
			continue
		}
		overrides[o.AllocationID] = o
	}

	absentDates := make(map[string][]string)
	for _, a := range in.Absences {
		if a.Status == models.AbsenceStatusDisputed {
			continue
		}
		if hasWeek && !InWeek(in.WeekStart, a.AbsenceDate) {
			continue
		}
		absentDates[a.AllocationID] = append(absentDates[a.AllocationID], DateOnly(a.AbsenceDate).Format(DateLayout))
	}

	allocations := make(map[string]models.Allocation, len(in.Allocations))
	sessions := make([]EffectiveSession, 0, len(in.Allocations)+len(in.Makeups)+len(in.Events))

	for _, alloc := range in.Allocations {
		allocations[alloc.ID] = alloc
		session := baseSession(alloc)
		if o, ok := overrides[alloc.ID]; ok {
			applyOverride(&session, o)
		}
		if dates := absentDates[alloc.ID]; len(dates) > 0 {
			session.AbsentDates = uniqueSorted(dates)
		}
		sessions = append(sessions, session)
	}

	for _, m := range in.Makeups {
		if m.Status != models.MakeupStatusApproved {
			continue
		}
		if hasWeek && !InWeek(in.WeekStart, m.RequestedDate) {
			continue
		}
		alloc, ok := allocations[m.AllocationID]
		if !ok {
			continue
		}
		sessions = append(sessions, makeupSession(alloc, m))
	}

	for _, ev := range in.Events {
		if hasWeek && !InWeek(in.WeekStart, ev.EventDate) {
			continue
		}
		sessions = append(sessions, eventSession(ev, grid))
	}

	return sessions
}

func baseSession(alloc models.Allocation) EffectiveSession {
	session := EffectiveSession{
		Key:          alloc.ID,
		Kind:         KindBase,
		AllocationID: alloc.ID,
		ScheduleID:   alloc.ScheduleID,
		CourseCode:   alloc.CourseCode,
		CourseName:   alloc.CourseName,
		Section:      alloc.Section,
		Day:          alloc.DayPattern,
		Time:         alloc.TimeRange,
		Building:     alloc.Building,
		Room:         alloc.Room,
		TeacherID:    alloc.Teacher(),
		TeacherName:  alloc.TeacherDisplayName(),
		Draggable:    true,
	}
	if alloc.College != nil {
		session.College = *alloc.College
	}
	return session
}

func applyOverride(session *EffectiveSession, o models.Override) {
	session.Kind = KindOverridden
	session.HasOverride = true
	session.OverrideID = o.ID
	session.Day = pick(o.Day, session.Day)
	session.Time = pick(o.Time, session.Time)
	session.Room = pick(o.Room, session.Room)
	session.Building = pick(o.Building, session.Building)
	if o.Note != nil {
		session.OverrideNote = *o.Note
	}
}

func makeupSession(alloc models.Allocation, m models.MakeupRequest) EffectiveSession {
	session := baseSession(alloc)
	date := DateOnly(m.RequestedDate)
	session.Key = makeupKeyPrefix + m.ID
	session.Kind = KindMakeup
	session.Day = ShortDay(date.Weekday())
	session.Time = m.RequestedTime
	session.Room = pick(m.RequestedRoom, alloc.Room)
	session.Date = &date
	session.Draggable = false
	session.IsMakeup = true
	session.MakeupID = m.ID
	return session
}

func eventSession(ev models.SpecialEvent, grid Grid) EffectiveSession {
	date := DateOnly(ev.EventDate)
	return EffectiveSession{
		Key:            eventKeyPrefix + ev.ID,
		Kind:           KindSpecialEvent,
		CourseName:     ev.Reason,
		Day:            ShortDay(date.Weekday()),
		Time:           EventWindow(ev, grid).String(),
		Building:       ev.Building,
		Room:           ev.Room,
		Date:           &date,
		IsSpecialEvent: true,
		EventID:        ev.ID,
	}
}

// EventWindow resolves the time an event blocks its room. A missing or unparseable bound falls
// back to the corresponding edge of the displayable day.
func EventWindow(ev models.SpecialEvent, grid Grid) TimeRange {
	window := grid.Day()
	if ev.TimeStart != nil {
		if start, ok := ParseTime(*ev.TimeStart); ok {
			window.Start = start
		}
	}
	if ev.TimeEnd != nil {
		if end, ok := ParseTime(*ev.TimeEnd); ok {
			window.End = end
		}
	}
	if window.End <= window.Start {
		return grid.Day()
	}
	return window
}

// EventBounded reports whether the event was declared with at least one usable time bound.
func EventBounded(ev models.SpecialEvent) bool {
	for _, bound := range []*string{ev.TimeStart, ev.TimeEnd} {
		if bound == nil {
			continue
		}
		if _, ok := ParseTime(*bound); ok {
			return true
		}
	}
	return false
}

func pick(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}

func uniqueSorted(values []string) []string {
	sort.Strings(values)
	out := values[:0]
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}
