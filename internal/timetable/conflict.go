package timetable

import (
	"strings"
	"time"
)

// Dimension names the shared resource behind a collision.
type Dimension string

const (
	DimensionRoom    Dimension = "ROOM"
	DimensionTeacher Dimension = "TEACHER"
)

// Collision describes an existing entry that blocks a proposed move.
type Collision struct {
	Key         string    `json:"key"`
	Kind        Kind      `json:"kind"`
	Dimension   Dimension `json:"dimension"`
	CourseCode  string    `json:"course_code,omitempty"`
	Section     string    `json:"section,omitempty"`
	Day         string    `json:"day"`
	Time        string    `json:"time"`
	Building    string    `json:"building"`
	Room        string    `json:"room"`
	TeacherName string    `json:"teacher_name,omitempty"`
}

// Proposal is a candidate placement for an entry. Empty Room keeps the entry's current room and
// building; zero Duration keeps the entry's current length.
type Proposal struct {
	Key      string
	Day      time.Weekday
	Start    int
	Duration int
	Room     string
	Building string
}

// ConflictReport is the outcome of checking a proposal.
type ConflictReport struct {
	Conflict   bool        `json:"conflict"`
	Day        string      `json:"day"`
	Time       string      `json:"time"`
	Building   string      `json:"building"`
	Room       string      `json:"room"`
	Collisions []Collision `json:"collisions"`
}

// Detector answers collision questions against one compiled week.
type Detector struct {
	sessions []EffectiveSession
	byKey    map[string]int
}

// NewDetector indexes the compiled sessions.
func NewDetector(sessions []EffectiveSession) *Detector {
	byKey := make(map[string]int, len(sessions))
	for i, s := range sessions {
		byKey[s.Key] = i
	}
	return &Detector{sessions: sessions, byKey: byKey}
}

// Lookup returns the session with the given key.
func (d *Detector) Lookup(key string) (EffectiveSession, bool) {
	idx, ok := d.byKey[key]
	if !ok {
		return EffectiveSession{}, false
	}
	return d.sessions[idx], true
}

// HasConflict reports whether moving the entry to day at startMinutes, in its current room,
// collides with any other entry.
func (d *Detector) HasConflict(day time.Weekday, startMinutes int, movingKey string) bool {
	return d.Check(Proposal{Key: movingKey, Day: day, Start: startMinutes}).Conflict
}

// Candidate resolves the interval, room and building a proposal would occupy.
func (d *Detector) Candidate(p Proposal) (TimeRange, string, string) {
	moving, _ := d.Lookup(p.Key)
	duration := DefaultDuration
	if current, ok := moving.Range(); ok {
		duration = current.Duration()
	}
	if p.Duration > 0 {
		duration = p.Duration
	}
	room, building := moving.Room, moving.Building
	if strings.TrimSpace(p.Room) != "" {
		room = strings.TrimSpace(p.Room)
		// a room without a building stays in the session's building, as the saved override would
		if b := strings.TrimSpace(p.Building); b != "" {
			building = b
		}
	}
	return TimeRange{Start: p.Start, End: p.Start + duration}, room, building
}

// Check evaluates a proposal. Only overlapping entries on the same day that share the room or the
// teacher collide; unparseable entries never collide.
func (d *Detector) Check(p Proposal) ConflictReport {
	moving, _ := d.Lookup(p.Key)
	candidate, room, building := d.Candidate(p)
	teacher := normalizeName(moving.TeacherName)

	report := ConflictReport{
		Day:        ShortDay(p.Day),
		Time:       candidate.String(),
		Building:   building,
		Room:       room,
		Collisions: []Collision{},
	}

	for _, other := range d.sessions {
		if other.Key == p.Key {
			continue
		}
		if !other.Days().Has(p.Day) {
			continue
		}
		otherRange, ok := other.Range()
		if !ok || !candidate.Overlaps(otherRange) {
			continue
		}

		var dimension Dimension
		switch {
		case sameRoom(room, building, other.Room, other.Building):
			dimension = DimensionRoom
		case teacher != "" && teacher == normalizeName(other.TeacherName):
			dimension = DimensionTeacher
		default:
			continue
		}

		report.Collisions = append(report.Collisions, Collision{
			Key:         other.Key,
			Kind:        other.Kind,
			Dimension:   dimension,
			CourseCode:  other.CourseCode,
			Section:     other.Section,
			Day:         other.Day,
			Time:        other.Time,
			Building:    other.Building,
			Room:        other.Room,
			TeacherName: other.TeacherName,
		})
	}

	report.Conflict = len(report.Collisions) > 0
	return report
}

func sameRoom(room, building, otherRoom, otherBuilding string) bool {
	r := normalizeName(room)
	if r == "" || r != normalizeName(otherRoom) {
		return false
	}
	return normalizeName(building) == normalizeName(otherBuilding)
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
