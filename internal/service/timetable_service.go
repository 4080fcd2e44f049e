package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/live-timetable-api/internal/dto"
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
	"github.com/noah-isme/live-timetable-api/pkg/export"
)

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	FindCurrent(ctx context.Context) (*models.Schedule, error)
}

type allocationReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error)
	GetByID(ctx context.Context, id string) (*models.Allocation, error)
}

type overrideReader interface {
	ListByWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Override, error)
}

type absenceReader interface {
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error)
}

type makeupReader interface {
	List(ctx context.Context, filter models.MakeupFilter) ([]models.MakeupRequest, error)
}

type specialEventReader interface {
	ListRange(ctx context.Context, from, to time.Time) ([]models.SpecialEvent, error)
}

type bundleCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// TimetableReaders groups the stores a week bundle is assembled from.
type TimetableReaders struct {
	Schedules   scheduleReader
	Allocations allocationReader
	Overrides   overrideReader
	Absences    absenceReader
	Makeups     makeupReader
	Events      specialEventReader
}

// TimetableConfig tunes compilation and caching.
type TimetableConfig struct {
	Grid         timetable.Grid
	Location     *time.Location
	PollInterval time.Duration
	CacheTTL     time.Duration
	Now          func() time.Time
}

// Bundle is everything the compiler needs for one schedule week, as stored.
type Bundle struct {
	Schedule    models.Schedule        `json:"schedule"`
	WeekStart   string                 `json:"week_start"`
	Allocations []models.Allocation    `json:"allocations"`
	Overrides   []models.Override      `json:"overrides"`
	Absences    []models.Absence       `json:"absences"`
	Makeups     []models.MakeupRequest `json:"makeups"`
	Events      []models.SpecialEvent  `json:"special_events"`
}

// Week parses the bundle's week start.
func (b *Bundle) Week() time.Time {
	week, _ := timetable.ParseDate(b.WeekStart)
	return week
}

// GridView describes the displayable day of the grid.
type GridView struct {
	DayStart    string   `json:"day_start"`
	DayEnd      string   `json:"day_end"`
	SlotMinutes int      `json:"slot_minutes"`
	Slots       []string `json:"slots"`
}

// EffectiveView is the compiled week returned to clients.
type EffectiveView struct {
	Schedule  models.Schedule              `json:"schedule"`
	WeekStart string                       `json:"week_start"`
	Grid      GridView                     `json:"grid"`
	Sessions  []timetable.EffectiveSession `json:"sessions"`
}

// LiveView lists today's sessions with their status at a moment.
type LiveView struct {
	Schedule models.Schedule         `json:"schedule"`
	At       time.Time               `json:"at"`
	Sessions []timetable.LiveSession `json:"sessions"`
}

// TimetableService assembles, caches and compiles schedule weeks.
type TimetableService struct {
	readers  TimetableReaders
	cache    bundleCache
	metrics  *MetricsService
	renderer sheetRenderer
	audit    auditLogger
	logger   *zap.Logger
	config   TimetableConfig
}

// NewTimetableService constructs the service.
func NewTimetableService(readers TimetableReaders, cache bundleCache, metrics *MetricsService, renderer sheetRenderer, audit auditLogger, logger *zap.Logger, cfg TimetableConfig) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Grid.SlotMinutes == 0 {
		cfg.Grid = timetable.DefaultGrid()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	return &TimetableService{readers: readers, cache: cache, metrics: metrics, renderer: renderer, audit: audit, logger: logger, config: cfg}
}

// PollInterval is the refetch cadence advertised to polling clients.
func (s *TimetableService) PollInterval() time.Duration {
	return s.config.PollInterval
}

// ResolveWeek turns an optional YYYY-MM-DD into the Monday of its week; empty means this week.
func (s *TimetableService) ResolveWeek(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return timetable.WeekStart(s.now()), nil
	}
	date, err := timetable.ParseDate(raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "week_start must be YYYY-MM-DD")
	}
	return timetable.WeekStart(date), nil
}

// Schedule resolves a schedule id, or the current schedule when id is empty.
func (s *TimetableService) Schedule(ctx context.Context, id string) (*models.Schedule, error) {
	var (
		schedule *models.Schedule
		err      error
	)
	if strings.TrimSpace(id) == "" {
		schedule, err = s.readers.Schedules.FindCurrent(ctx)
	} else {
		schedule, err = s.readers.Schedules.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Bundle returns the stored layers of a schedule week, from cache when possible. The boolean
// reports a cache hit.
func (s *TimetableService) Bundle(ctx context.Context, scheduleID string, week time.Time) (*Bundle, bool, error) {
	schedule, err := s.Schedule(ctx, scheduleID)
	if err != nil {
		return nil, false, err
	}
	week = timetable.WeekStart(week)
	key := BundleKey(schedule.ID, week.Format(timetable.DateLayout))

	if s.cache != nil {
		var cached Bundle
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Debug("bundle cache unavailable", zap.Error(err))
		}
		if hit {
			return &cached, true, nil
		}
	}

	bundle, err := s.load(ctx, *schedule, week)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, bundle, s.config.CacheTTL)
	}
	return bundle, false, nil
}

// FreshSessions compiles a week straight from the store, skipping the cache. Mutations use it so
// they never act on a stale view.
func (s *TimetableService) FreshSessions(ctx context.Context, schedule models.Schedule, week time.Time) ([]timetable.EffectiveSession, error) {
	bundle, err := s.load(ctx, schedule, timetable.WeekStart(week))
	if err != nil {
		return nil, err
	}
	return s.Compile(bundle), nil
}

// Compile merges the bundle's layers into the effective week.
func (s *TimetableService) Compile(bundle *Bundle) []timetable.EffectiveSession {
	start := time.Now()
	sessions := timetable.Compile(timetable.CompileInput{
		WeekStart:   bundle.Week(),
		Grid:        s.config.Grid,
		Allocations: bundle.Allocations,
		Overrides:   bundle.Overrides,
		Absences:    bundle.Absences,
		Makeups:     bundle.Makeups,
		Events:      bundle.Events,
	})
	s.metrics.ObserveCompile(time.Since(start), len(sessions))
	return sessions
}

// Effective returns the compiled, filtered week.
func (s *TimetableService) Effective(ctx context.Context, query dto.EffectiveQuery) (*EffectiveView, bool, error) {
	week, err := s.ResolveWeek(query.WeekStart)
	if err != nil {
		return nil, false, err
	}
	filter := timetable.Filter{Room: query.Room, Teacher: query.Teacher, Section: query.Section}
	if strings.TrimSpace(query.Day) != "" {
		day, ok := timetable.ParseWeekday(query.Day)
		if !ok {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "day must name a single weekday")
		}
		filter.Day = &day
	}

	bundle, hit, err := s.Bundle(ctx, query.ScheduleID, week)
	if err != nil {
		return nil, false, err
	}
	return &EffectiveView{
		Schedule:  bundle.Schedule,
		WeekStart: bundle.WeekStart,
		Grid:      s.gridView(),
		Sessions:  filter.Apply(s.Compile(bundle)),
	}, hit, nil
}

// Live reports what is happening in a schedule at a moment, in the configured timezone.
func (s *TimetableService) Live(ctx context.Context, query dto.LiveQuery) (*LiveView, error) {
	at := s.now()
	if strings.TrimSpace(query.At) != "" {
		parsed, err := time.Parse(time.RFC3339, query.At)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "at must be RFC3339")
		}
		at = parsed.In(s.config.Location)
	}

	bundle, _, err := s.Bundle(ctx, query.ScheduleID, timetable.WeekStart(at))
	if err != nil {
		return nil, err
	}
	sessions := s.Compile(bundle)
	return &LiveView{
		Schedule: bundle.Schedule,
		At:       at,
		Sessions: timetable.LiveView(sessions, at, timetable.NewAbsenceIndex(bundle.Absences)),
	}, nil
}

var exportHeaders = []string{"Time", "Course", "Section", "Room", "Teacher", "Notes"}

var exportWidths = []float64{38, 70, 35, 35, 50, 49}

// Export renders the effective week as a PDF and returns the document with a suggested filename.
func (s *TimetableService) Export(ctx context.Context, query dto.WeekQuery, actor *models.JWTClaims) ([]byte, string, error) {
	week, err := s.ResolveWeek(query.WeekStart)
	if err != nil {
		return nil, "", err
	}
	bundle, _, err := s.Bundle(ctx, query.ScheduleID, week)
	if err != nil {
		return nil, "", err
	}

	sheet := BuildSheet(bundle, s.Compile(bundle))
	doc, err := s.renderer.Render(sheet)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	scheduleID := bundle.Schedule.ID
	s.emitAudit(ctx, actor, &models.AuditLog{
		Action:     models.AuditActionTimetableExport,
		Resource:   "schedules",
		ResourceID: &scheduleID,
		NewValues:  mustJSON(map[string]string{"week_start": bundle.WeekStart}),
	})
	return doc, fmt.Sprintf("timetable-%s.pdf", bundle.WeekStart), nil
}

// BuildSheet lays out a compiled week for printing: Monday to Saturday always, Sunday only when
// something happens on it, sessions ordered by start time.
func BuildSheet(bundle *Bundle, sessions []timetable.EffectiveSession) export.Sheet {
	week := bundle.Week()
	sheet := export.Sheet{
		Title:    bundle.Schedule.Name,
		Subtitle: fmt.Sprintf("%s %s | Week of %s", bundle.Schedule.Semester, bundle.Schedule.AcademicYear, bundle.WeekStart),
		Headers:  exportHeaders,
		Widths:   exportWidths,
	}

	for _, day := range timetable.DaysOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday).Days() {
		date := timetable.DateInWeek(week, day)
		var todays []timetable.EffectiveSession
		for _, session := range sessions {
			if session.OccursOn(date) {
				todays = append(todays, session)
			}
		}
		if day == time.Sunday && len(todays) == 0 {
			continue
		}
		sort.SliceStable(todays, func(i, j int) bool {
			return startOf(todays[i]) < startOf(todays[j])
		})

		section := export.DaySection{Name: fmt.Sprintf("%s %s", day, date.Format(timetable.DateLayout))}
		for _, session := range todays {
			section.Rows = append(section.Rows, sheetRow(session, date))
		}
		sheet.Days = append(sheet.Days, section)
	}
	return sheet
}

func sheetRow(session timetable.EffectiveSession, date time.Time) []string {
	var notes []string
	switch session.Kind {
	case timetable.KindOverridden:
		notes = append(notes, "Rescheduled")
	case timetable.KindMakeup:
		notes = append(notes, "Makeup")
	case timetable.KindSpecialEvent:
		notes = append(notes, "Special event")
	}
	if session.OverrideNote != "" {
		notes = append(notes, session.OverrideNote)
	}
	for _, absent := range session.AbsentDates {
		if absent == date.Format(timetable.DateLayout) {
			notes = append(notes, "Absent")
			break
		}
	}

	course := strings.TrimSpace(session.CourseCode + " " + session.CourseName)
	room := strings.TrimSpace(session.Building + " " + session.Room)
	return []string{session.Time, course, session.Section, room, session.TeacherName, strings.Join(notes, "; ")}
}

func startOf(session timetable.EffectiveSession) int {
	if r, ok := session.Range(); ok {
		return r.Start
	}
	return 24 * 60
}

func (s *TimetableService) load(ctx context.Context, schedule models.Schedule, week time.Time) (*Bundle, error) {
	last := timetable.WeekEnd(week).AddDate(0, 0, -1)
	bundle := &Bundle{Schedule: schedule, WeekStart: week.Format(timetable.DateLayout)}

	var err error
	if bundle.Allocations, err = s.readers.Allocations.ListBySchedule(ctx, schedule.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}
	if bundle.Overrides, err = s.readers.Overrides.ListByWeek(ctx, schedule.ID, week); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load overrides")
	}
	if bundle.Absences, err = s.readers.Absences.List(ctx, models.AbsenceFilter{ScheduleID: schedule.ID, From: &week, To: &last}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absences")
	}
	if bundle.Makeups, err = s.readers.Makeups.List(ctx, models.MakeupFilter{ScheduleID: schedule.ID, From: &week, To: &last}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load makeup requests")
	}
	if bundle.Events, err = s.readers.Events.ListRange(ctx, week, last); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load special events")
	}
	return bundle, nil
}

func (s *TimetableService) gridView() GridView {
	grid := s.config.Grid
	slots := grid.Slots()
	labels := make([]string, len(slots))
	for i, slot := range slots {
		labels[i] = timetable.FormatTime(slot)
	}
	return GridView{
		DayStart:    timetable.FormatTime(grid.DayStart),
		DayEnd:      timetable.FormatTime(grid.DayEnd),
		SlotMinutes: grid.SlotMinutes,
		Slots:       labels,
	}
}

func (s *TimetableService) now() time.Time {
	return s.config.Now().In(s.config.Location)
}

func (s *TimetableService) emitAudit(ctx context.Context, actor *models.JWTClaims, log *models.AuditLog) {
	recordAudit(ctx, s.audit, s.logger, actor, "timetable-service", log)
}
