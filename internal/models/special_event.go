package models

import "time"

// SpecialEvent blocks a room on a date, optionally within a time window.
type SpecialEvent struct {
	ID        string    `db:"id" json:"id"`
	Room      string    `db:"room" json:"room"`
	Building  string    `db:"building" json:"building"`
	EventDate time.Time `db:"event_date" json:"event_date"`
	TimeStart *string   `db:"time_start" json:"time_start,omitempty"`
	TimeEnd   *string   `db:"time_end" json:"time_end,omitempty"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
