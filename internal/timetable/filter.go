package timetable

import (
	"strings"
	"time"
)

// Filter narrows a compiled view for one rendered grid or search box.
type Filter struct {
	Day     *time.Weekday
	Room    string
	Teacher string
	Section string
}

// Apply returns the sessions matching every non-empty criterion. Sections are compared after
// NormalizeSection so lab and lecture groups of a section match together.
func (f Filter) Apply(sessions []EffectiveSession) []EffectiveSession {
	room := normalizeName(f.Room)
	teacher := normalizeName(f.Teacher)
	section := strings.ToLower(NormalizeSection(f.Section))

	out := make([]EffectiveSession, 0, len(sessions))
	for _, s := range sessions {
		if f.Day != nil && !s.Days().Has(*f.Day) {
			continue
		}
		if room != "" && normalizeName(s.Room) != room {
			continue
		}
		if teacher != "" && !strings.Contains(normalizeName(s.TeacherName), teacher) {
			continue
		}
		if section != "" && strings.ToLower(NormalizeSection(s.Section)) != section {
			continue
		}
		out = append(out, s)
	}
	return out
}
