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
	"github.com/noah-isme/live-timetable-api/internal/repository"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
)

const defaultMakeupPageSize = 50

type makeupStore interface {
	Create(ctx context.Context, request *models.MakeupRequest) error
	GetByID(ctx context.Context, id string) (*models.MakeupRequest, error)
	List(ctx context.Context, filter models.MakeupFilter) ([]models.MakeupRequest, error)
	Count(ctx context.Context, filter models.MakeupFilter) (int, error)
	Review(ctx context.Context, params repository.ReviewMakeupParams) error
}

// MakeupService manages makeup requests and their review.
type MakeupService struct {
	makeups     makeupStore
	allocations allocationFinder
	schedules   scheduleFinder
	notifier    changeNotifier
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewMakeupService constructs the service.
func NewMakeupService(makeups makeupStore, allocations allocationFinder, schedules scheduleFinder, notifier changeNotifier, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MakeupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MakeupService{
		makeups:     makeups,
		allocations: allocations,
		schedules:   schedules,
		notifier:    notifier,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// RequestSelf files a makeup for one of the caller's own sessions.
func (s *MakeupService) RequestSelf(ctx context.Context, req dto.CreateMakeupRequest, actor *models.JWTClaims) (*models.MakeupRequest, error) {
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

// Request files a makeup on behalf of a faculty member, defaulting to the allocation's teacher.
func (s *MakeupService) Request(ctx context.Context, req dto.CreateMakeupRequest, actor *models.JWTClaims) (*models.MakeupRequest, error) {
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

func (s *MakeupService) create(ctx context.Context, req dto.CreateMakeupRequest, actor *models.JWTClaims, faculty func(*models.Allocation) (string, error)) (*models.MakeupRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid makeup payload")
	}
	date, err := timetable.ParseDate(req.RequestedDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "requested_date must be YYYY-MM-DD")
	}
	slot, ok := timetable.ParseTimeRange(req.RequestedTime)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested_time must look like 9:00 AM - 10:30 AM")
	}
	var original *time.Time
	if req.OriginalAbsenceDate != nil && strings.TrimSpace(*req.OriginalAbsenceDate) != "" {
		parsed, err := timetable.ParseDate(strings.TrimSpace(*req.OriginalAbsenceDate))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "original_absence_date must be YYYY-MM-DD")
		}
		original = &parsed
	}

	allocation, _, err := lockedAllocation(ctx, s.allocations, s.schedules, req.AllocationID)
	if err != nil {
		return nil, err
	}
	if original != nil {
		if err := meetsOn(allocation, *original); err != nil {
			return nil, err
		}
	}
	facultyID, err := faculty(allocation)
	if err != nil {
		return nil, err
	}

	request := &models.MakeupRequest{
		AllocationID:        allocation.ID,
		FacultyID:           facultyID,
		RequestedDate:       date,
		RequestedTime:       slot.String(),
		RequestedRoom:       trimmedPtr(req.RequestedRoom),
		Reason:              strings.TrimSpace(req.Reason),
		Status:              models.MakeupStatusPending,
		OriginalAbsenceDate: original,
	}
	if err := s.makeups.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create makeup request")
	}

	s.metrics.RecordMutation(ChangeMakeup)
	recordAudit(ctx, s.audit, s.logger, actor, "makeup-service", &models.AuditLog{
		Action:     models.AuditActionMakeupCreate,
		Resource:   "makeup_requests",
		ResourceID: &request.ID,
		NewValues:  mustJSON(request),
	})
	return request, nil
}

// Review approves or rejects a pending request. Only approval changes the compiled week.
func (s *MakeupService) Review(ctx context.Context, id string, req dto.ReviewMakeupRequest, actor *models.JWTClaims) (*models.MakeupRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	request, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.MakeupStatusPending {
		return nil, appErrors.ErrAlreadyReviewed
	}
	allocation, _, err := lockedAllocation(ctx, s.allocations, s.schedules, request.AllocationID)
	if err != nil {
		return nil, err
	}

	params := repository.ReviewMakeupParams{
		ID:         id,
		Status:     models.MakeupStatus(req.Status),
		ReviewedBy: actorID(actor),
		ReviewedAt: s.now().UTC(),
		AdminNote:  trimmedPtr(req.AdminNote),
	}
	if err := s.makeups.Review(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// lost a race with another reviewer
			return nil, appErrors.ErrAlreadyReviewed
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review makeup request")
	}

	previous := request.Status
	request.Status = params.Status
	request.ReviewedBy = &params.ReviewedBy
	request.ReviewedAt = &params.ReviewedAt
	if params.AdminNote != nil {
		request.AdminNote = params.AdminNote
	}

	s.metrics.RecordMutation(ChangeMakeup)
	recordAudit(ctx, s.audit, s.logger, actor, "makeup-service", &models.AuditLog{
		Action:     models.AuditActionMakeupReview,
		Resource:   "makeup_requests",
		ResourceID: &request.ID,
		OldValues:  mustJSON(map[string]models.MakeupStatus{"status": previous}),
		NewValues:  mustJSON(request),
	})
	if request.Status == models.MakeupStatusApproved && s.notifier != nil {
		s.notifier.Notify(ctx, Change{
			ScheduleID: allocation.ScheduleID,
			WeekStart:  timetable.WeekStart(request.RequestedDate).Format(timetable.DateLayout),
			Kind:       ChangeMakeup,
			ResourceID: request.ID,
		})
	}
	return request, nil
}

// List returns makeup requests. Non-admin callers only see their own.
func (s *MakeupService) List(ctx context.Context, query dto.MakeupQuery, actor *models.JWTClaims) ([]models.MakeupRequest, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid makeup query")
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = defaultMakeupPageSize
	}

	filter := models.MakeupFilter{
		ScheduleID: query.ScheduleID,
		Limit:      size,
		Offset:     (page - 1) * size,
	}
	for _, status := range query.Status {
		filter.Status = append(filter.Status, models.MakeupStatus(status))
	}
	if actor == nil || !actor.Role.IsAdmin() {
		filter.FacultyID = actorID(actor)
		if filter.FacultyID == "" {
			return nil, nil, appErrors.ErrUnauthorized
		}
	}

	requests, err := s.makeups.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list makeup requests")
	}
	if requests == nil {
		requests = []models.MakeupRequest{}
	}
	total, err := s.makeups.Count(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count makeup requests")
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *MakeupService) get(ctx context.Context, id string) (*models.MakeupRequest, error) {
	request, err := s.makeups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "makeup request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load makeup request")
	}
	return request, nil
}
