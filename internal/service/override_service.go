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

type overrideStore interface {
	Upsert(ctx context.Context, override *models.Override) error
	GetByID(ctx context.Context, id string) (*models.Override, error)
	FindByAllocationWeek(ctx context.Context, allocationID string, weekStart time.Time) (*models.Override, error)
	Delete(ctx context.Context, id string) error
	DeleteByWeek(ctx context.Context, scheduleID string, weekStart time.Time) (int64, error)
}

type weekCompiler interface {
	FreshSessions(ctx context.Context, schedule models.Schedule, week time.Time) ([]timetable.EffectiveSession, error)
}

// OverrideService saves per-week reschedules and runs the two-phase drag and drop move.
type OverrideService struct {
	overrides   overrideStore
	allocations allocationFinder
	schedules   scheduleFinder
	weeks       weekCompiler
	notifier    changeNotifier
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewOverrideService constructs the service.
func NewOverrideService(overrides overrideStore, allocations allocationFinder, schedules scheduleFinder, weeks weekCompiler, notifier changeNotifier, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{
		overrides:   overrides,
		allocations: allocations,
		schedules:   schedules,
		weeks:       weeks,
		notifier:    notifier,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// Save upserts the override of an allocation for a week. The last save wins.
func (s *OverrideService) Save(ctx context.Context, req dto.SaveOverrideRequest, actor *models.JWTClaims) (*models.Override, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	week, err := parseWeek(req.WeekStart)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(req.Day, req.Time); err != nil {
		return nil, err
	}
	allocation, _, err := lockedAllocation(ctx, s.allocations, s.schedules, req.AllocationID)
	if err != nil {
		return nil, err
	}

	override := &models.Override{
		ScheduleID:   allocation.ScheduleID,
		AllocationID: allocation.ID,
		WeekStart:    week,
		Day:          trimmedPtr(req.Day),
		Time:         trimmedPtr(req.Time),
		Room:         trimmedPtr(req.Room),
		Building:     trimmedPtr(req.Building),
		Note:         trimmedPtr(req.Note),
	}
	if id := actorID(actor); id != "" {
		override.UpdatedBy = &id
	}
	if err := s.overrides.Upsert(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save override")
	}

	s.afterMutation(ctx, actor, ChangeOverride, override.ScheduleID, week, &models.AuditLog{
		Action:     models.AuditActionOverrideSave,
		Resource:   "timetable_overrides",
		ResourceID: &override.ID,
		NewValues:  mustJSON(override),
	})
	return override, nil
}

// Remove deletes one override, restoring the base slot for that week.
func (s *OverrideService) Remove(ctx context.Context, id string, actor *models.JWTClaims) error {
	override, err := s.overrides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "override not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
	}
	if _, err := lockedSchedule(ctx, s.schedules, override.ScheduleID); err != nil {
		return err
	}
	if err := s.overrides.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}

	s.afterMutation(ctx, actor, ChangeOverride, override.ScheduleID, override.WeekStart, &models.AuditLog{
		Action:     models.AuditActionOverrideDelete,
		Resource:   "timetable_overrides",
		ResourceID: &override.ID,
		OldValues:  mustJSON(override),
	})
	return nil
}

// ResetWeek removes every override of a schedule week. Other weeks are untouched.
func (s *OverrideService) ResetWeek(ctx context.Context, query dto.ResetWeekQuery, actor *models.JWTClaims) (int64, error) {
	if err := s.validator.Struct(query); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}
	week, err := parseWeek(query.WeekStart)
	if err != nil {
		return 0, err
	}
	schedule, err := lockedSchedule(ctx, s.schedules, query.ScheduleID)
	if err != nil {
		return 0, err
	}

	removed, err := s.overrides.DeleteByWeek(ctx, schedule.ID, week)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset week")
	}

	s.afterMutation(ctx, actor, ChangeWeekReset, schedule.ID, week, &models.AuditLog{
		Action:     models.AuditActionWeekReset,
		Resource:   "schedules",
		ResourceID: &schedule.ID,
		NewValues:  mustJSON(map[string]interface{}{"week_start": week.Format(timetable.DateLayout), "removed": removed}),
	})
	return removed, nil
}

// ProposeMove checks a drop without persisting anything. A conflict is a normal result, not an
// error.
func (s *OverrideService) ProposeMove(ctx context.Context, req dto.MoveRequest) (*dto.ProposeMoveResponse, error) {
	plan, err := s.planMove(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	prefill := dto.MovePrefill{
		Day:      plan.report.Day,
		Time:     plan.report.Time,
		Room:     plan.report.Room,
		Building: plan.report.Building,
	}
	existing, err := s.overrides.FindByAllocationWeek(ctx, plan.allocation.ID, plan.week)
	switch {
	case err == nil && existing.Note != nil:
		prefill.Note = *existing.Note
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
	}
	return &dto.ProposeMoveResponse{Report: plan.report, Prefill: prefill}, nil
}

// CommitMove re-checks the move against the current store and saves it as the week's override.
// A slot that became occupied since the proposal is rejected.
func (s *OverrideService) CommitMove(ctx context.Context, req dto.CommitMoveRequest, actor *models.JWTClaims) (*models.Override, error) {
	var explicit *timetable.TimeRange
	if req.Time != nil && strings.TrimSpace(*req.Time) != "" {
		r, ok := timetable.ParseTimeRange(*req.Time)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "time must look like 9:00 AM - 10:30 AM")
		}
		explicit = &r
	}

	plan, err := s.planMove(ctx, req.MoveRequest, explicit)
	if err != nil {
		return nil, err
	}
	if plan.report.Conflict {
		occupied := appErrors.Clone(appErrors.ErrSlotOccupied, "target slot is occupied by "+collisionSummary(plan.report.Collisions))
		return nil, appErrors.WithDetails(occupied, plan.report)
	}

	note := req.Note
	if note == nil {
		existing, err := s.overrides.FindByAllocationWeek(ctx, plan.allocation.ID, plan.week)
		if err == nil {
			note = existing.Note
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
		}
	}

	day, timeText, room, building := plan.report.Day, plan.report.Time, plan.report.Room, plan.report.Building
	return s.Save(ctx, dto.SaveOverrideRequest{
		AllocationID: plan.allocation.ID,
		WeekStart:    plan.week.Format(timetable.DateLayout),
		Day:          &day,
		Time:         &timeText,
		Room:         &room,
		Building:     &building,
		Note:         note,
	}, actor)
}

type movePlan struct {
	allocation *models.Allocation
	week       time.Time
	report     timetable.ConflictReport
}

func (s *OverrideService) planMove(ctx context.Context, req dto.MoveRequest, explicit *timetable.TimeRange) (*movePlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	week, err := parseWeek(req.WeekStart)
	if err != nil {
		return nil, err
	}
	day, ok := timetable.ParseWeekday(req.Day)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must name a single weekday")
	}
	proposal := timetable.Proposal{Key: req.Key, Day: day, Room: strings.TrimSpace(req.Room), Building: strings.TrimSpace(req.Building)}
	if explicit != nil {
		proposal.Start = explicit.Start
		proposal.Duration = explicit.Duration()
	} else {
		start, ok := timetable.ParseTime(req.Start)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start must look like 9:30 AM")
		}
		proposal.Start = start
	}
	if strings.Contains(req.Key, ":") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only scheduled sessions can be moved")
	}

	allocation, schedule, err := lockedAllocation(ctx, s.allocations, s.schedules, req.Key)
	if err != nil {
		return nil, err
	}
	sessions, err := s.weeks.FreshSessions(ctx, *schedule, week)
	if err != nil {
		return nil, err
	}

	report := timetable.NewDetector(sessions).Check(proposal)
	s.metrics.RecordConflictCheck(report.Conflict)
	return &movePlan{allocation: allocation, week: week, report: report}, nil
}

func (s *OverrideService) afterMutation(ctx context.Context, actor *models.JWTClaims, kind ChangeKind, scheduleID string, week time.Time, log *models.AuditLog) {
	s.metrics.RecordMutation(kind)
	recordAudit(ctx, s.audit, s.logger, actor, "override-service", log)
	if s.notifier != nil {
		s.notifier.Notify(ctx, Change{ScheduleID: scheduleID, WeekStart: week.Format(timetable.DateLayout), Kind: kind, ResourceID: stringValue(log.ResourceID)})
	}
}

func parseWeek(raw string) (time.Time, error) {
	date, err := timetable.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "week_start must be YYYY-MM-DD")
	}
	return timetable.WeekStart(date), nil
}

func validateSlot(day, timeRange *string) error {
	if day != nil && strings.TrimSpace(*day) != "" {
		if pattern := timetable.ParseDayPattern(*day); !pattern.Matched() || len(pattern.Unrecognized) > 0 {
			return appErrors.Clone(appErrors.ErrValidation, "day is not a recognised day code")
		}
	}
	if timeRange != nil && strings.TrimSpace(*timeRange) != "" {
		if _, ok := timetable.ParseTimeRange(*timeRange); !ok {
			return appErrors.Clone(appErrors.ErrValidation, "time must look like 9:00 AM - 10:30 AM")
		}
	}
	return nil
}

func collisionSummary(collisions []timetable.Collision) string {
	parts := make([]string, 0, len(collisions))
	for _, c := range collisions {
		label := strings.TrimSpace(c.CourseCode + " " + c.Section)
		if label == "" {
			label = c.Key
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
