package models

import "time"

// AbsenceStatus captures the review state of an absence.
type AbsenceStatus string

const (
	AbsenceStatusConfirmed AbsenceStatus = "confirmed"
	AbsenceStatusDisputed  AbsenceStatus = "disputed"
)

// SpecialEventFacultyID marks absences generated by a special event rather than reported by a
// faculty member.
const SpecialEventFacultyID = "00000000-0000-0000-0000-000000000000"

// Absence records that the teacher of an allocation did not hold the session on a date.
type Absence struct {
	ID             string        `db:"id" json:"id"`
	AllocationID   string        `db:"allocation_id" json:"allocation_id"`
	ScheduleID     string        `db:"schedule_id" json:"schedule_id"`
	FacultyID      string        `db:"faculty_id" json:"faculty_id"`
	AbsenceDate    time.Time     `db:"absence_date" json:"absence_date"`
	Reason         string        `db:"reason" json:"reason"`
	Status         AbsenceStatus `db:"status" json:"status"`
	SpecialEventID *string       `db:"special_event_id" json:"special_event_id,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// FromSpecialEvent reports whether the absence was generated by an event fan-out.
func (a Absence) FromSpecialEvent() bool {
	return a.FacultyID == SpecialEventFacultyID
}

// AbsenceFilter narrows absence listings.
type AbsenceFilter struct {
	ScheduleID   string
	AllocationID string
	FacultyID    string
	From         *time.Time
	To           *time.Time
	Status       AbsenceStatus
}
