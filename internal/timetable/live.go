package timetable

import (
	"time"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// LiveStatus is the inferred state of a session at a moment in time.
type LiveStatus string

const (
	LiveStatusAbsent    LiveStatus = "absent"
	LiveStatusOngoing   LiveStatus = "ongoing"
	LiveStatusUpcoming  LiveStatus = "upcoming"
	LiveStatusCompleted LiveStatus = "completed"
	LiveStatusUnknown   LiveStatus = "unknown"
)

type absenceKey struct {
	allocationID string
	date         string
}

// AbsenceIndex answers "is this session absent on this date" from non-disputed absences.
type AbsenceIndex map[absenceKey]models.Absence

// NewAbsenceIndex indexes absences by allocation and date, skipping disputed ones.
func NewAbsenceIndex(absences []models.Absence) AbsenceIndex {
	idx := make(AbsenceIndex, len(absences))
	for _, a := range absences {
		if a.Status == models.AbsenceStatusDisputed {
			continue
		}
		idx[absenceKey{allocationID: a.AllocationID, date: DateOnly(a.AbsenceDate).Format(DateLayout)}] = a
	}
	return idx
}

// Lookup returns the authoritative absence for an allocation on a date.
func (idx AbsenceIndex) Lookup(allocationID string, date time.Time) (models.Absence, bool) {
	a, ok := idx[absenceKey{allocationID: allocationID, date: DateOnly(date).Format(DateLayout)}]
	return a, ok
}

// LiveSession pairs a session with its status at a moment.
type LiveSession struct {
	EffectiveSession
	Status LiveStatus `json:"status"`
}

// StatusAt infers a session's status at the given wall-clock moment. The boolean is false when
// the session does not take place that day. A recorded absence wins over the clock.
func StatusAt(s EffectiveSession, at time.Time, absences AbsenceIndex) (LiveStatus, bool) {
	if !s.OccursOn(at) {
		return "", false
	}
	if s.Kind == KindBase || s.Kind == KindOverridden {
		if _, absent := absences.Lookup(s.AllocationID, at); absent {
			return LiveStatusAbsent, true
		}
	}
	r, ok := s.Range()
	if !ok {
		return LiveStatusUnknown, true
	}
	now := at.Hour()*60 + at.Minute()
	switch {
	case now < r.Start:
		return LiveStatusUpcoming, true
	case now < r.End:
		return LiveStatusOngoing, true
	default:
		return LiveStatusCompleted, true
	}
}

// LiveView returns the sessions taking place on at's day with their status, in compiled order.
func LiveView(sessions []EffectiveSession, at time.Time, absences AbsenceIndex) []LiveSession {
	view := make([]LiveSession, 0)
	for _, s := range sessions {
		status, ok := StatusAt(s, at, absences)
		if !ok {
			continue
		}
		view = append(view, LiveSession{EffectiveSession: s, Status: status})
	}
	return view
}
