package models

import "time"

// Override redirects one allocation's day, time or room for a single week. At most one exists per
// (allocation, week start).
type Override struct {
	ID           string    `db:"id" json:"id"`
	ScheduleID   string    `db:"schedule_id" json:"schedule_id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id"`
	WeekStart    time.Time `db:"week_start" json:"week_start"`
	Day          *string   `db:"day" json:"day,omitempty"`
	Time         *string   `db:"time" json:"time,omitempty"`
	Room         *string   `db:"room" json:"room,omitempty"`
	Building     *string   `db:"building" json:"building,omitempty"`
	Note         *string   `db:"note" json:"note,omitempty"`
	UpdatedBy    *string   `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
