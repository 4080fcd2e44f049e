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

// MakeupRepository persists makeup requests.
type MakeupRepository struct {
	db *sqlx.DB
}

// NewMakeupRepository constructs the repository.
func NewMakeupRepository(db *sqlx.DB) *MakeupRepository {
	return &MakeupRepository{db: db}
}

const makeupColumns = `m.id, m.allocation_id, m.faculty_id, m.requested_date, m.requested_time, m.requested_room, m.reason,
       m.status, m.admin_note, m.original_absence_date, m.reviewed_by, m.reviewed_at, m.created_at`

// Create inserts a makeup request as pending unless a status is preset.
func (r *MakeupRepository) Create(ctx context.Context, request *models.MakeupRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.MakeupStatusPending
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO makeup_requests
	(id, allocation_id, faculty_id, requested_date, requested_time, requested_room, reason, status, admin_note, original_absence_date, reviewed_by, reviewed_at, created_at)
	VALUES (:id, :allocation_id, :faculty_id, :requested_date, :requested_time, :requested_room, :reason, :status, :admin_note, :original_absence_date, :reviewed_by, :reviewed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create makeup request: %w", err)
	}
	return nil
}

// GetByID fetches a makeup request.
func (r *MakeupRepository) GetByID(ctx context.Context, id string) (*models.MakeupRequest, error) {
	const query = `SELECT ` + makeupColumns + ` FROM makeup_requests m WHERE m.id = $1`
	var request models.MakeupRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns makeup requests matching the filter, newest first. A schedule filter joins through
// the allocation.
func (r *MakeupRepository) List(ctx context.Context, filter models.MakeupFilter) ([]models.MakeupRequest, error) {
	base, args := makeupFilterClause(filter)
	query := `SELECT ` + makeupColumns + base + " ORDER BY m.created_at DESC"

	if filter.Limit > 0 {
		limit := filter.Limit
		if limit > 500 {
			limit = 500
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}

	var requests []models.MakeupRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list makeup requests: %w", err)
	}
	return requests, nil
}

// Count returns how many makeup requests match the filter. Limit and Offset are ignored.
func (r *MakeupRepository) Count(ctx context.Context, filter models.MakeupFilter) (int, error) {
	base, args := makeupFilterClause(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*)`+base, args...); err != nil {
		return 0, fmt.Errorf("count makeup requests: %w", err)
	}
	return total, nil
}

func makeupFilterClause(filter models.MakeupFilter) (string, []interface{}) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(` FROM makeup_requests m`)

	conditions := make([]string, 0, 5)
	if filter.ScheduleID != "" {
		builder.WriteString(` JOIN schedule_allocations a ON a.id = m.allocation_id`)
		args = append(args, filter.ScheduleID)
		conditions = append(conditions, fmt.Sprintf("a.schedule_id = $%d", len(args)))
	}
	if filter.FacultyID != "" {
		args = append(args, filter.FacultyID)
		conditions = append(conditions, fmt.Sprintf("m.faculty_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("m.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("m.requested_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("m.requested_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	return builder.String(), args
}

// ReviewMakeupParams groups the columns set by a review.
type ReviewMakeupParams struct {
	ID         string
	Status     models.MakeupStatus
	ReviewedBy string
	ReviewedAt time.Time
	AdminNote  *string
}

// Review moves a pending request to its final status. sql.ErrNoRows means the request was missing
// or already reviewed.
func (r *MakeupRepository) Review(ctx context.Context, params ReviewMakeupParams) error {
	setParts := []string{
		"status = :status",
		"reviewed_by = :reviewed_by",
		"reviewed_at = :reviewed_at",
	}
	if params.AdminNote != nil {
		setParts = append(setParts, "admin_note = :admin_note")
	}
	query := fmt.Sprintf("UPDATE makeup_requests SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.MakeupStatusPending,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"admin_note":  params.AdminNote,
	})
	if err != nil {
		return fmt.Errorf("review makeup request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check makeup review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
