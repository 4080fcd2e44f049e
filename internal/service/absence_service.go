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

type absenceStore interface {
	Create(ctx context.Context, absence *models.Absence) error
	GetByID(ctx context.Context, id string) (*models.Absence, error)
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error)
	UpdateStatus(ctx context.Context, id string, status models.AbsenceStatus) error
	Delete(ctx context.Context, id string) error
}

// AbsenceService records, reviews and removes per-date absences.
type AbsenceService struct {
	absences    absenceStore
	allocations allocationFinder
	schedules   scheduleFinder
	notifier    changeNotifier
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAbsenceService constructs the service.
func NewAbsenceService(absences absenceStore, allocations allocationFinder, schedules scheduleFinder, notifier changeNotifier, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AbsenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{
		absences:    absences,
		allocations: allocations,
		schedules:   schedules,
		notifier:    notifier,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// ReportSelf records the caller's own absence from one of their sessions.
func (s *AbsenceService) ReportSelf(ctx context.Context, req dto.CreateAbsenceRequest, actor *models.JWTClaims) (*models.Absence, error) {
	facultyID := strings.TrimSpace(actorID(actor))
	if facultyID == "" {
		return nil, appErrors.ErrFacultyRequired
	}
	return s.create(ctx, req, actor, func(allocation *models.Allocation) (string, error) {
		if allocation.Teacher() != facultyID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to this session")
		}
		return facultyID, nil
	})
}

// Mark records an absence on behalf of the assigned faculty, or an explicit faculty id.
func (s *AbsenceService) Mark(ctx context.Context, req dto.CreateAbsenceRequest, actor *models.JWTClaims) (*models.Absence, error) {
	return s.create(ctx, req, actor, func(allocation *models.Allocation) (string, error) {
		facultyID := strings.TrimSpace(req.FacultyID)
		if facultyID == "" {
			facultyID = allocation.Teacher()
		}
		if facultyID == "" {
			return "", appErrors.ErrFacultyRequired
		}
		return facultyID, nil
	})
}

func (s *AbsenceService) create(ctx context.Context, req dto.CreateAbsenceRequest, actor *models.JWTClaims, faculty func(*models.Allocation) (string, error)) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	date, err := timetable.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	allocation, _, err := lockedAllocation(ctx, s.allocations, s.schedules, req.AllocationID)
	if err != nil {
		return nil, err
	}
	if err := meetsOn(allocation, date); err != nil {
		return nil, err
	}
	facultyID, err := faculty(allocation)
	if err != nil {
		return nil, err
	}

	absence := &models.Absence{
		AllocationID: allocation.ID,
		ScheduleID:   allocation.ScheduleID,
		FacultyID:    facultyID,
		AbsenceDate:  date,
		Reason:       strings.TrimSpace(req.Reason),
		Status:       models.AbsenceStatusConfirmed,
	}
	if err := s.absences.Create(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absence")
	}

	s.afterMutation(ctx, actor, absence, &models.AuditLog{
		Action:     models.AuditActionAbsenceCreate,
		Resource:   "timetable_absences",
		ResourceID: &absence.ID,
		NewValues:  mustJSON(absence),
	})
	return absence, nil
}

// Review sets an absence to confirmed or disputed.
func (s *AbsenceService) Review(ctx context.Context, id string, req dto.ReviewAbsenceRequest, actor *models.JWTClaims) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	absence, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := absence.Status
	status := models.AbsenceStatus(req.Status)
	if err := s.absences.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review absence")
	}
	absence.Status = status

	s.afterMutation(ctx, actor, absence, &models.AuditLog{
		Action:     models.AuditActionAbsenceReview,
		Resource:   "timetable_absences",
		ResourceID: &absence.ID,
		OldValues:  mustJSON(map[string]models.AbsenceStatus{"status": previous}),
		NewValues:  mustJSON(map[string]models.AbsenceStatus{"status": status}),
	})
	return absence, nil
}

// Delete hard-deletes an absence.
func (s *AbsenceService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	absence, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.absences.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence")
	}

	s.afterMutation(ctx, actor, absence, &models.AuditLog{
		Action:     models.AuditActionAbsenceDelete,
		Resource:   "timetable_absences",
		ResourceID: &absence.ID,
		OldValues:  mustJSON(absence),
	})
	return nil
}

// List returns absences of a schedule in a date range. Teachers only see their own.
func (s *AbsenceService) List(ctx context.Context, query dto.AbsenceQuery, actor *models.JWTClaims) ([]models.Absence, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence query")
	}
	filter := models.AbsenceFilter{ScheduleID: query.ScheduleID}
	if query.From != "" {
		from, _ := timetable.ParseDate(query.From)
		filter.From = &from
	}
	if query.To != "" {
		to, _ := timetable.ParseDate(query.To)
		filter.To = &to
	}
	if actor != nil && !actor.Role.IsAdmin() {
		filter.FacultyID = actor.UserID
	}
	absences, err := s.absences.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return absences, nil
}

func (s *AbsenceService) get(ctx context.Context, id string) (*models.Absence, error) {
	absence, err := s.absences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence")
	}
	return absence, nil
}

func (s *AbsenceService) afterMutation(ctx context.Context, actor *models.JWTClaims, absence *models.Absence, log *models.AuditLog) {
	s.metrics.RecordMutation(ChangeAbsence)
	recordAudit(ctx, s.audit, s.logger, actor, "absence-service", log)
	if s.notifier != nil {
		s.notifier.Notify(ctx, Change{
			ScheduleID: absence.ScheduleID,
			WeekStart:  timetable.WeekStart(absence.AbsenceDate).Format(timetable.DateLayout),
			Kind:       ChangeAbsence,
			ResourceID: absence.ID,
		})
	}
}

// meetsOn rejects dates on which the allocation never meets. Unparseable day codes are accepted.
func meetsOn(allocation *models.Allocation, date time.Time) error {
	days := timetable.ExpandDays(allocation.DayPattern)
	if days.Empty() || days.Has(date.Weekday()) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, "session does not meet on "+date.Format(timetable.DateLayout))
}
