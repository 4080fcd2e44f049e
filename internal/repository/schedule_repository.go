package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// ScheduleRepository reads timetable schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, name, semester, academic_year, is_locked, is_current, created_at, updated_at`

// FindByID returns a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindCurrent returns the schedule flagged as current.
func (r *ScheduleRepository) FindCurrent(ctx context.Context) (*models.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE is_current = TRUE ORDER BY updated_at DESC LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query); err != nil {
		return nil, err
	}
	return &schedule, nil
}
