package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/live-timetable-api/internal/dto"
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
)

type specialEventStore interface {
	CreateWithAbsences(ctx context.Context, event *models.SpecialEvent, absences []models.Absence) error
	DeleteWithAbsences(ctx context.Context, id string) (int64, error)
	GetByID(ctx context.Context, id string) (*models.SpecialEvent, error)
	ListRange(ctx context.Context, from, to time.Time) ([]models.SpecialEvent, error)
}

type allocationLister interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error)
}

// SpecialEventService blocks rooms on dates and cancels the sessions held there.
type SpecialEventService struct {
	events      specialEventStore
	allocations allocationLister
	schedules   scheduleReader
	notifier    changeNotifier
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	grid        timetable.Grid
	now         func() time.Time
}

// NewSpecialEventService constructs the service.
func NewSpecialEventService(events specialEventStore, allocations allocationLister, schedules scheduleReader, notifier changeNotifier, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, grid timetable.Grid) *SpecialEventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if grid.SlotMinutes <= 0 {
		grid = timetable.DefaultGrid()
	}
	return &SpecialEventService{
		events:      events,
		allocations: allocations,
		schedules:   schedules,
		notifier:    notifier,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		grid:        grid,
		now:         time.Now,
	}
}

// Create stores the event and marks every affected session absent on the event date.
func (s *SpecialEventService) Create(ctx context.Context, req dto.CreateSpecialEventRequest, actor *models.JWTClaims) (*dto.SpecialEventResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special event payload")
	}
	date, err := timetable.ParseDate(req.EventDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "event_date must be YYYY-MM-DD")
	}
	schedule, err := s.schedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, err
	}

	event := &models.SpecialEvent{
		Room:      strings.TrimSpace(req.Room),
		Building:  strings.TrimSpace(req.Building),
		EventDate: date,
		TimeStart: trimmedPtr(req.TimeStart),
		TimeEnd:   trimmedPtr(req.TimeEnd),
		Reason:    strings.TrimSpace(req.Reason),
		CreatedBy: actorID(actor),
	}

	allocations, err := s.allocations.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}
	affected := timetable.AffectedAllocations(*event, allocations, s.grid)
	if len(affected) == 0 {
		return nil, appErrors.ErrNoAffectedSessions
	}

	reason := timetable.EventAbsenceReason(*event)
	absences := make([]models.Absence, 0, len(affected))
	ids := make([]string, 0, len(affected))
	for _, allocation := range affected {
		absences = append(absences, models.Absence{
			AllocationID: allocation.ID,
			ScheduleID:   schedule.ID,
			FacultyID:    models.SpecialEventFacultyID,
			AbsenceDate:  date,
			Reason:       reason,
			Status:       models.AbsenceStatusConfirmed,
		})
		ids = append(ids, allocation.ID)
	}
	if err := s.events.CreateWithAbsences(ctx, event, absences); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create special event")
	}

	response := &dto.SpecialEventResponse{Event: *event, AffectedAllocations: ids}
	s.afterMutation(ctx, actor, schedule.ID, event, &models.AuditLog{
		Action:     models.AuditActionEventCreate,
		Resource:   "special_events",
		ResourceID: &event.ID,
		NewValues:  mustJSON(response),
	})
	return response, nil
}

// Cancel deletes the event with its generated absences. Absences reported by faculty remain.
func (s *SpecialEventService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "special event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load special event")
	}
	removed, err := s.events.DeleteWithAbsences(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "special event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel special event")
	}
	s.logger.Info("special event cancelled", zap.String("event_id", id), zap.Int64("absences_removed", removed))

	// events are not tied to a schedule; the current one is the only one with live viewers
	scheduleID := ""
	if current, err := s.schedules.FindCurrent(ctx); err == nil {
		scheduleID = current.ID
	}
	s.afterMutation(ctx, actor, scheduleID, event, &models.AuditLog{
		Action:     models.AuditActionEventCancel,
		Resource:   "special_events",
		ResourceID: &event.ID,
		OldValues:  mustJSON(event),
	})
	return nil
}

// List returns events dated within the range. Missing bounds default to the current week.
func (s *SpecialEventService) List(ctx context.Context, query dto.SpecialEventQuery) ([]models.SpecialEvent, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special event query")
	}
	week := timetable.WeekStart(s.now())
	from, to := week, week.AddDate(0, 0, 6)
	if query.From != "" {
		from, _ = timetable.ParseDate(query.From)
	}
	if query.To != "" {
		to, _ = timetable.ParseDate(query.To)
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must not be after to")
	}

	events, err := s.events.ListRange(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list special events")
	}
	if events == nil {
		events = []models.SpecialEvent{}
	}
	return events, nil
}

func (s *SpecialEventService) schedule(ctx context.Context, id string) (*models.Schedule, error) {
	if strings.TrimSpace(id) != "" {
		return lockedSchedule(ctx, s.schedules, id)
	}
	current, err := s.schedules.FindCurrent(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current schedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !current.IsLocked {
		return nil, appErrors.ErrScheduleNotLocked
	}
	return current, nil
}

func (s *SpecialEventService) afterMutation(ctx context.Context, actor *models.JWTClaims, scheduleID string, event *models.SpecialEvent, log *models.AuditLog) {
	s.metrics.RecordMutation(ChangeSpecialEvent)
	recordAudit(ctx, s.audit, s.logger, actor, "special-event-service", log)
	if s.notifier != nil && scheduleID != "" {
		s.notifier.Notify(ctx, Change{
			ScheduleID: scheduleID,
			WeekStart:  timetable.WeekStart(event.EventDate).Format(timetable.DateLayout),
			Kind:       ChangeSpecialEvent,
			ResourceID: event.ID,
		})
	}
}
