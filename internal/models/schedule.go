package models

import "time"

// Schedule is a weekly timetable for one semester. Override, absence, makeup and special event
// layers only apply while it is locked.
type Schedule struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Semester     string    `db:"semester" json:"semester"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	IsLocked     bool      `db:"is_locked" json:"is_locked"`
	IsCurrent    bool      `db:"is_current" json:"is_current"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
