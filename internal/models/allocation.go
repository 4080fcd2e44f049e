package models

import "time"

// Allocation is one locked weekly class session. Rows are written when a schedule is locked and
// are never updated afterwards.
type Allocation struct {
	ID          string    `db:"id" json:"id"`
	ScheduleID  string    `db:"schedule_id" json:"schedule_id"`
	CourseCode  string    `db:"course_code" json:"course_code"`
	CourseName  string    `db:"course_name" json:"course_name"`
	Section     string    `db:"section" json:"section"`
	DayPattern  string    `db:"day_pattern" json:"day_pattern"`
	TimeRange   string    `db:"time_range" json:"time_range"`
	Building    string    `db:"building" json:"building"`
	Room        string    `db:"room" json:"room"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName *string   `db:"teacher_name" json:"teacher_name,omitempty"`
	College     *string   `db:"college" json:"college,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Teacher returns the teacher id or an empty string.
func (a Allocation) Teacher() string {
	if a.TeacherID == nil {
		return ""
	}
	return *a.TeacherID
}

// TeacherDisplayName returns the teacher name or an empty string.
func (a Allocation) TeacherDisplayName() string {
	if a.TeacherName == nil {
		return ""
	}
	return *a.TeacherName
}
