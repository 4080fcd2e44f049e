package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// AllocationRepository reads the locked base sessions of a schedule.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs the repository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

const allocationColumns = `id, schedule_id, course_code, course_name, section, day_pattern, time_range,
       building, room, teacher_id, teacher_name, college, created_at`

// ListBySchedule returns every allocation of a schedule in a stable order.
func (r *AllocationRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM schedule_allocations WHERE schedule_id = $1 ORDER BY course_code, section, id`
	var allocations []models.Allocation
	if err := r.db.SelectContext(ctx, &allocations, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

// GetByID fetches one allocation.
func (r *AllocationRepository) GetByID(ctx context.Context, id string) (*models.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM schedule_allocations WHERE id = $1`
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation, query, id); err != nil {
		return nil, err
	}
	return &allocation, nil
}
