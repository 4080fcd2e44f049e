package models

import "time"

// MakeupStatus captures the review workflow of a makeup request.
type MakeupStatus string

const (
	MakeupStatusPending  MakeupStatus = "pending"
	MakeupStatusApproved MakeupStatus = "approved"
	MakeupStatusRejected MakeupStatus = "rejected"
)

// MakeupRequest proposes a substitute date, time and room for a session.
type MakeupRequest struct {
	ID                  string       `db:"id" json:"id"`
	AllocationID        string       `db:"allocation_id" json:"allocation_id"`
	FacultyID           string       `db:"faculty_id" json:"faculty_id"`
	RequestedDate       time.Time    `db:"requested_date" json:"requested_date"`
	RequestedTime       string       `db:"requested_time" json:"requested_time"`
	RequestedRoom       *string      `db:"requested_room" json:"requested_room,omitempty"`
	Reason              string       `db:"reason" json:"reason"`
	Status              MakeupStatus `db:"status" json:"status"`
	AdminNote           *string      `db:"admin_note" json:"admin_note,omitempty"`
	OriginalAbsenceDate *time.Time   `db:"original_absence_date" json:"original_absence_date,omitempty"`
	ReviewedBy          *string      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt          *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
}

// MakeupFilter constrains listing queries.
type MakeupFilter struct {
	ScheduleID string
	FacultyID  string
	Status     []MakeupStatus
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
