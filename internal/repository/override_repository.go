package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// OverrideRepository persists per-week reschedules.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs the repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

const overrideColumns = `id, schedule_id, allocation_id, week_start, day, time, room, building, note, updated_by, created_at, updated_at`

// Upsert stores the override for (allocation_id, week_start), replacing whatever was there. The
// stored id and created_at are written back so callers see the surviving row.
func (r *OverrideRepository) Upsert(ctx context.Context, override *models.Override) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if override.CreatedAt.IsZero() {
		override.CreatedAt = now
	}
	override.UpdatedAt = now

	const query = `INSERT INTO timetable_overrides (` + overrideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (allocation_id, week_start) DO UPDATE
		SET day = EXCLUDED.day,
		    time = EXCLUDED.time,
		    room = EXCLUDED.room,
		    building = EXCLUDED.building,
		    note = EXCLUDED.note,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		override.ID, override.ScheduleID, override.AllocationID, override.WeekStart,
		override.Day, override.Time, override.Room, override.Building, override.Note, override.UpdatedBy,
		override.CreatedAt, override.UpdatedAt,
	)
	if err := row.Scan(&override.ID, &override.CreatedAt); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	return nil
}

// GetByID fetches an override.
func (r *OverrideRepository) GetByID(ctx context.Context, id string) (*models.Override, error) {
	const query = `SELECT ` + overrideColumns + ` FROM timetable_overrides WHERE id = $1`
	var override models.Override
	if err := r.db.GetContext(ctx, &override, query, id); err != nil {
		return nil, err
	}
	return &override, nil
}

// FindByAllocationWeek returns the override of an allocation for a week, if any.
func (r *OverrideRepository) FindByAllocationWeek(ctx context.Context, allocationID string, weekStart time.Time) (*models.Override, error) {
	const query = `SELECT ` + overrideColumns + ` FROM timetable_overrides WHERE allocation_id = $1 AND week_start = $2`
	var override models.Override
	if err := r.db.GetContext(ctx, &override, query, allocationID, weekStart); err != nil {
		return nil, err
	}
	return &override, nil
}

// ListByWeek returns every override of a schedule for one week.
func (r *OverrideRepository) ListByWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Override, error) {
	const query = `SELECT ` + overrideColumns + ` FROM timetable_overrides WHERE schedule_id = $1 AND week_start = $2 ORDER BY updated_at`
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, scheduleID, weekStart); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return overrides, nil
}

// Delete removes one override. sql.ErrNoRows is never returned; callers check existence first.
func (r *OverrideRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_overrides WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	return nil
}

// DeleteByWeek removes all overrides of a schedule for one week and reports how many went.
func (r *OverrideRepository) DeleteByWeek(ctx context.Context, scheduleID string, weekStart time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetable_overrides WHERE schedule_id = $1 AND week_start = $2`, scheduleID, weekStart)
	if err != nil {
		return 0, fmt.Errorf("reset override week: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check override reset rows: %w", err)
	}
	return rows, nil
}
