package dto

import (
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
)

// WeekQuery selects one schedule week. An empty schedule means the current schedule and an empty
// week means the week containing today.
type WeekQuery struct {
	ScheduleID string `form:"schedule_id" json:"schedule_id"`
	WeekStart  string `form:"week_start" json:"week_start" validate:"omitempty,datetime=2006-01-02"`
}

// EffectiveQuery narrows the compiled view.
type EffectiveQuery struct {
	WeekQuery
	Day     string `form:"day" json:"day"`
	Room    string `form:"room" json:"room"`
	Teacher string `form:"teacher" json:"teacher"`
	Section string `form:"section" json:"section"`
}

// LiveQuery asks for session status at a moment; At defaults to now.
type LiveQuery struct {
	ScheduleID string `form:"schedule_id" json:"schedule_id"`
	At         string `form:"at" json:"at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// MoveRequest describes dropping a session onto a new day, start time and optionally a room.
type MoveRequest struct {
	WeekStart string `json:"week_start" validate:"required,datetime=2006-01-02"`
	Key       string `json:"key" validate:"required"`
	Day       string `json:"day" validate:"required"`
	Start     string `json:"start" validate:"required"`
	Room      string `json:"room"`
	Building  string `json:"building"`
}

// CommitMoveRequest confirms a move, optionally editing the prefilled values.
type CommitMoveRequest struct {
	MoveRequest
	Time *string `json:"time"`
	Note *string `json:"note"`
}

// MovePrefill seeds the edit dialog shown after a drop.
type MovePrefill struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Room     string `json:"room"`
	Building string `json:"building"`
	Note     string `json:"note,omitempty"`
}

// ProposeMoveResponse carries the detector report and the dialog prefill.
type ProposeMoveResponse struct {
	Report  timetable.ConflictReport `json:"report"`
	Prefill MovePrefill              `json:"prefill"`
}

// SaveOverrideRequest upserts the override of an allocation for one week. Blank fields keep the
// allocation's own value.
type SaveOverrideRequest struct {
	AllocationID string  `json:"allocation_id" validate:"required"`
	WeekStart    string  `json:"week_start" validate:"required,datetime=2006-01-02"`
	Day          *string `json:"day"`
	Time         *string `json:"time"`
	Room         *string `json:"room"`
	Building     *string `json:"building"`
	Note         *string `json:"note" validate:"omitempty,max=500"`
}

// ResetWeekQuery removes every override of a schedule week.
type ResetWeekQuery struct {
	ScheduleID string `form:"schedule_id" json:"schedule_id" validate:"required"`
	WeekStart  string `form:"week_start" json:"week_start" validate:"required,datetime=2006-01-02"`
}

// ResetWeekResponse reports how many overrides were removed.
type ResetWeekResponse struct {
	Removed int64 `json:"removed"`
}

// CreateAbsenceRequest marks a session absent on a date. FacultyID is only honoured on the admin
// path and defaults to the allocation's teacher.
type CreateAbsenceRequest struct {
	AllocationID string `json:"allocation_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason       string `json:"reason" validate:"max=500"`
	FacultyID    string `json:"faculty_id"`
}

// ReviewAbsenceRequest records the admin decision on an absence.
type ReviewAbsenceRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed disputed"`
}

// AbsenceQuery lists absences of a schedule within a date range.
type AbsenceQuery struct {
	ScheduleID string `form:"schedule_id" json:"schedule_id"`
	From       string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// CreateMakeupRequest proposes a substitute session.
type CreateMakeupRequest struct {
	AllocationID        string  `json:"allocation_id" validate:"required"`
	RequestedDate       string  `json:"requested_date" validate:"required,datetime=2006-01-02"`
	RequestedTime       string  `json:"requested_time" validate:"required"`
	RequestedRoom       *string `json:"requested_room"`
	Reason              string  `json:"reason" validate:"required,max=500"`
	OriginalAbsenceDate *string `json:"original_absence_date" validate:"omitempty,datetime=2006-01-02"`
	FacultyID           string  `json:"faculty_id"`
}

// ReviewMakeupRequest approves or rejects a pending request.
type ReviewMakeupRequest struct {
	Status    string  `json:"status" validate:"required,oneof=approved rejected"`
	AdminNote *string `json:"admin_note" validate:"omitempty,max=500"`
}

// MakeupQuery filters makeup listings.
type MakeupQuery struct {
	ScheduleID string   `form:"schedule_id" json:"schedule_id"`
	Status     []string `form:"status" json:"status" validate:"omitempty,dive,oneof=pending approved rejected"`
	Page       int      `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize   int      `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=200"`
}

// CreateSpecialEventRequest blocks a room on a date. An empty ScheduleID fans out over the current
// schedule.
type CreateSpecialEventRequest struct {
	ScheduleID string  `json:"schedule_id"`
	Room       string  `json:"room" validate:"required"`
	Building   string  `json:"building"`
	EventDate  string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	TimeStart  *string `json:"time_start"`
	TimeEnd    *string `json:"time_end"`
	Reason     string  `json:"reason" validate:"required,max=500"`
}

// SpecialEventQuery lists events in a date range; both bounds default to the current week.
type SpecialEventQuery struct {
	From string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// SpecialEventResponse returns the stored event and the allocations it cancelled.
type SpecialEventResponse struct {
	Event               models.SpecialEvent `json:"event"`
	AffectedAllocations []string            `json:"affected_allocations"`
}
