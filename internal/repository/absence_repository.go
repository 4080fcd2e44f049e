package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

// AbsenceRepository persists per-date absences.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

const absenceColumns = `id, allocation_id, schedule_id, faculty_id, absence_date, reason, status, special_event_id, created_at`

const insertAbsenceQuery = `INSERT INTO timetable_absences (` + absenceColumns + `)
	VALUES (:id, :allocation_id, :schedule_id, :faculty_id, :absence_date, :reason, :status, :special_event_id, :created_at)`

func prepareAbsence(absence *models.Absence) {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.Status == "" {
		absence.Status = models.AbsenceStatusConfirmed
	}
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = time.Now().UTC()
	}
}

// Create inserts an absence.
func (r *AbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	prepareAbsence(absence)
	if _, err := r.db.NamedExecContext(ctx, insertAbsenceQuery, absence); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// GetByID fetches an absence.
func (r *AbsenceRepository) GetByID(ctx context.Context, id string) (*models.Absence, error) {
	const query = `SELECT ` + absenceColumns + ` FROM timetable_absences WHERE id = $1`
	var absence models.Absence
	if err := r.db.GetContext(ctx, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// List returns absences matching the filter ordered by date.
func (r *AbsenceRepository) List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + absenceColumns + ` FROM timetable_absences`)

	conditions := make([]string, 0, 6)
	if filter.ScheduleID != "" {
		args = append(args, filter.ScheduleID)
		conditions = append(conditions, fmt.Sprintf("schedule_id = $%d", len(args)))
	}
	if filter.AllocationID != "" {
		args = append(args, filter.AllocationID)
		conditions = append(conditions, fmt.Sprintf("allocation_id = $%d", len(args)))
	}
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("absence_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("absence_date <= $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY absence_date, created_at")

	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

// UpdateStatus records an admin review outcome.
func (r *AbsenceRepository) UpdateStatus(ctx context.Context, id string, status models.AbsenceStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE timetable_absences SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update absence status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check absence update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete hard-deletes an absence.
func (r *AbsenceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetable_absences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check absence delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
