package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/pkg/database"
)

// SpecialEventRepository persists special events together with the absences they fan out to.
type SpecialEventRepository struct {
	db *sqlx.DB
}

// NewSpecialEventRepository constructs the repository.
func NewSpecialEventRepository(db *sqlx.DB) *SpecialEventRepository {
	return &SpecialEventRepository{db: db}
}

const specialEventColumns = `id, room, building, event_date, time_start, time_end, reason, created_by, created_at`

// CreateWithAbsences inserts the event and every generated absence in one transaction. Each absence
// is linked to the event before insert.
func (r *SpecialEventRepository) CreateWithAbsences(ctx context.Context, event *models.SpecialEvent, absences []models.Absence) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO special_events (` + specialEventColumns + `)
			VALUES (:id, :room, :building, :event_date, :time_start, :time_end, :reason, :created_by, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return fmt.Errorf("create special event: %w", err)
		}
		for i := range absences {
			absences[i].SpecialEventID = &event.ID
			prepareAbsence(&absences[i])
			if _, err := tx.NamedExecContext(ctx, insertAbsenceQuery, &absences[i]); err != nil {
				return fmt.Errorf("create special event absence: %w", err)
			}
		}
		return nil
	})
}

// DeleteWithAbsences removes the event's generated absences and then the event, in one
// transaction. Absences reported by faculty on the same sessions are untouched.
func (r *SpecialEventRepository) DeleteWithAbsences(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM timetable_absences WHERE special_event_id = $1 AND faculty_id = $2`,
			id, models.SpecialEventFacultyID,
		)
		if err != nil {
			return fmt.Errorf("delete special event absences: %w", err)
		}
		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("check special event absence rows: %w", err)
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM special_events WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete special event: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check special event rows: %w", err)
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// GetByID fetches one event.
func (r *SpecialEventRepository) GetByID(ctx context.Context, id string) (*models.SpecialEvent, error) {
	const query = `SELECT ` + specialEventColumns + ` FROM special_events WHERE id = $1`
	var event models.SpecialEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListRange returns events dated within [from, to], both inclusive.
func (r *SpecialEventRepository) ListRange(ctx context.Context, from, to time.Time) ([]models.SpecialEvent, error) {
	const query = `SELECT ` + specialEventColumns + ` FROM special_events WHERE event_date BETWEEN $1 AND $2 ORDER BY event_date, time_start NULLS FIRST, created_at`
	var events []models.SpecialEvent
	if err := r.db.SelectContext(ctx, &events, query, from, to); err != nil {
		return nil, fmt.Errorf("list special events: %w", err)
	}
	return events, nil
}
