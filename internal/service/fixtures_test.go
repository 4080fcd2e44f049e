package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/repository"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
	"github.com/noah-isme/live-timetable-api/pkg/export"
)

var testWeek = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func strPtr(v string) *string { return &v }

type memSchedules struct {
	items   map[string]*models.Schedule
	current string
}

func (m *memSchedules) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if schedule, ok := m.items[id]; ok {
		cp := *schedule
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memSchedules) FindCurrent(ctx context.Context) (*models.Schedule, error) {
	return m.FindByID(ctx, m.current)
}

type memAllocations struct {
	items []models.Allocation
}

func (m *memAllocations) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Allocation, error) {
	var out []models.Allocation
	for _, a := range m.items {
		if a.ScheduleID == scheduleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAllocations) GetByID(ctx context.Context, id string) (*models.Allocation, error) {
	for _, a := range m.items {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memOverrides struct {
	mu    sync.Mutex
	items []models.Override
	seq   int
}

func (m *memOverrides) Upsert(ctx context.Context, override *models.Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.items {
		if existing.AllocationID == override.AllocationID && existing.WeekStart.Equal(override.WeekStart) {
			override.ID = existing.ID
			m.items[i] = *override
			return nil
		}
	}
	m.seq++
	override.ID = fmt.Sprintf("ovr-%d", m.seq)
	m.items = append(m.items, *override)
	return nil
}

func (m *memOverrides) GetByID(ctx context.Context, id string) (*models.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.items {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memOverrides) FindByAllocationWeek(ctx context.Context, allocationID string, weekStart time.Time) (*models.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.items {
		if o.AllocationID == allocationID && o.WeekStart.Equal(weekStart) {
			cp := o
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memOverrides) ListByWeek(ctx context.Context, scheduleID string, weekStart time.Time) ([]models.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Override
	for _, o := range m.items {
		if o.ScheduleID == scheduleID && o.WeekStart.Equal(weekStart) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOverrides) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.items {
		if o.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memOverrides) DeleteByWeek(ctx context.Context, scheduleID string, weekStart time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var removed int64
	for _, o := range m.items {
		if o.ScheduleID == scheduleID && o.WeekStart.Equal(weekStart) {
			removed++
			continue
		}
		kept = append(kept, o)
	}
	m.items = kept
	return removed, nil
}

type memAbsences struct {
	mu    sync.Mutex
	items []models.Absence
	seq   int
}

func (m *memAbsences) Create(ctx context.Context, absence *models.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(absence)
	return nil
}

func (m *memAbsences) insert(absence *models.Absence) {
	if absence.ID == "" {
		m.seq++
		absence.ID = fmt.Sprintf("abs-%d", m.seq)
	}
	m.items = append(m.items, *absence)
}

func (m *memAbsences) GetByID(ctx context.Context, id string) (*models.Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAbsences) List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Absence
	for _, a := range m.items {
		if filter.ScheduleID != "" && a.ScheduleID != filter.ScheduleID {
			continue
		}
		if filter.FacultyID != "" && a.FacultyID != filter.FacultyID {
			continue
		}
		if filter.From != nil && a.AbsenceDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.AbsenceDate.After(*filter.To) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAbsences) UpdateStatus(ctx context.Context, id string, status models.AbsenceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAbsences) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memAbsences) all() []models.Absence {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Absence(nil), m.items...)
}

type memMakeups struct {
	mu          sync.Mutex
	items       []models.MakeupRequest
	allocations *memAllocations
	seq         int
	lastFilter  models.MakeupFilter
}

func (m *memMakeups) Create(ctx context.Context, request *models.MakeupRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request.ID == "" {
		m.seq++
		request.ID = fmt.Sprintf("mk-%d", m.seq)
	}
	m.items = append(m.items, *request)
	return nil
}

func (m *memMakeups) GetByID(ctx context.Context, id string) (*models.MakeupRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memMakeups) List(ctx context.Context, filter models.MakeupFilter) ([]models.MakeupRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := m.matching(ctx, filter)
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[filter.Offset:end]
	}
	return out, nil
}

func (m *memMakeups) Count(ctx context.Context, filter models.MakeupFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(ctx, filter)), nil
}

func (m *memMakeups) matching(ctx context.Context, filter models.MakeupFilter) []models.MakeupRequest {
	var out []models.MakeupRequest
	for _, r := range m.items {
		if filter.ScheduleID != "" && m.allocations != nil {
			alloc, err := m.allocations.GetByID(ctx, r.AllocationID)
			if err != nil || alloc.ScheduleID != filter.ScheduleID {
				continue
			}
		}
		if filter.FacultyID != "" && r.FacultyID != filter.FacultyID {
			continue
		}
		if len(filter.Status) > 0 && !hasMakeupStatus(filter.Status, r.Status) {
			continue
		}
		if filter.From != nil && r.RequestedDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && r.RequestedDate.After(*filter.To) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func hasMakeupStatus(statuses []models.MakeupStatus, status models.MakeupStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (m *memMakeups) Review(ctx context.Context, params repository.ReviewMakeupParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == params.ID && m.items[i].Status == models.MakeupStatusPending {
			m.items[i].Status = params.Status
			m.items[i].ReviewedBy = &params.ReviewedBy
			m.items[i].ReviewedAt = &params.ReviewedAt
			if params.AdminNote != nil {
				m.items[i].AdminNote = params.AdminNote
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

type memEvents struct {
	mu       sync.Mutex
	items    []models.SpecialEvent
	absences *memAbsences
	seq      int
}

func (m *memEvents) CreateWithAbsences(ctx context.Context, event *models.SpecialEvent, absences []models.Absence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	event.ID = fmt.Sprintf("evt-%d", m.seq)
	m.items = append(m.items, *event)
	m.absences.mu.Lock()
	defer m.absences.mu.Unlock()
	for i := range absences {
		absences[i].SpecialEventID = &event.ID
		m.absences.insert(&absences[i])
	}
	return nil
}

func (m *memEvents) DeleteWithAbsences(ctx context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i, ev := range m.items {
		if ev.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return 0, sql.ErrNoRows
	}
	m.absences.mu.Lock()
	defer m.absences.mu.Unlock()
	kept := m.absences.items[:0]
	var removed int64
	for _, a := range m.absences.items {
		if a.SpecialEventID != nil && *a.SpecialEventID == id && a.FromSpecialEvent() {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	m.absences.items = kept
	return removed, nil
}

func (m *memEvents) GetByID(ctx context.Context, id string) (*models.SpecialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.items {
		if ev.ID == id {
			cp := ev
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memEvents) ListRange(ctx context.Context, from, to time.Time) ([]models.SpecialEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SpecialEvent
	for _, ev := range m.items {
		if ev.EventDate.Before(from) || ev.EventDate.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

type memCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = payload
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, *log)
	return nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type notifierRecorder struct {
	mu      sync.Mutex
	changes []Change
}

func (n *notifierRecorder) Notify(ctx context.Context, change Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *notifierRecorder) all() []Change {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Change(nil), n.changes...)
}

type rendererStub struct {
	sheets []export.Sheet
}

func (r *rendererStub) Render(sheet export.Sheet) ([]byte, error) {
	r.sheets = append(r.sheets, sheet)
	return []byte("%PDF-stub"), nil
}

// timetableFixture wires in-memory stores for one locked current schedule and one draft.
type timetableFixture struct {
	schedules   *memSchedules
	allocations *memAllocations
	overrides   *memOverrides
	absences    *memAbsences
	makeups     *memMakeups
	events      *memEvents
	cacheRepo   *memCacheRepo
	audit       *auditRecorder
	notifier    *notifierRecorder
	renderer    *rendererStub
	now         time.Time
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	allocations := &memAllocations{items: []models.Allocation{
		{ID: "a1", ScheduleID: "sched-1", CourseCode: "CS101", CourseName: "Programming 1", Section: "BSIT-1A", DayPattern: "MWF", TimeRange: "9:00 AM - 10:00 AM", Building: "Main", Room: "101", TeacherID: strPtr("t1"), TeacherName: strPtr("Dr. Reyes")},
		{ID: "a2", ScheduleID: "sched-1", CourseCode: "CS102", CourseName: "Data Structures", Section: "BSIT-2A", DayPattern: "TTH", TimeRange: "9:00 AM - 10:30 AM", Building: "Main", Room: "101", TeacherID: strPtr("t2"), TeacherName: strPtr("Dr. Cruz")},
		{ID: "a3", ScheduleID: "sched-1", CourseCode: "CS103", CourseName: "Networks", Section: "BSIT-3A", DayPattern: "MWF", TimeRange: "10:00 AM - 11:00 AM", Building: "Main", Room: "205", TeacherID: strPtr("t2"), TeacherName: strPtr("Dr. Cruz")},
		{ID: "a4", ScheduleID: "sched-1", CourseCode: "GE1", CourseName: "Ethics", Section: "BSIT-1A", DayPattern: "TTH", TimeRange: "1:00 PM - 2:00 PM", Building: "Annex", Room: "12"},
		{ID: "d1", ScheduleID: "sched-draft", CourseCode: "CS101", Section: "BSIT-1B", DayPattern: "MWF", TimeRange: "9:00 AM - 10:00 AM", Building: "Main", Room: "101", TeacherID: strPtr("t1")},
	}}
	absences := &memAbsences{}
	return &timetableFixture{
		schedules: &memSchedules{current: "sched-1", items: map[string]*models.Schedule{
			"sched-1":     {ID: "sched-1", Name: "First Semester", Semester: "1st", AcademicYear: "2024-2025", IsLocked: true, IsCurrent: true},
			"sched-draft": {ID: "sched-draft", Name: "Draft"},
		}},
		allocations: allocations,
		overrides:   &memOverrides{},
		absences:    absences,
		makeups:     &memMakeups{allocations: allocations},
		events:      &memEvents{absences: absences},
		cacheRepo:   &memCacheRepo{},
		audit:       &auditRecorder{},
		notifier:    &notifierRecorder{},
		renderer:    &rendererStub{},
		now:         time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC),
	}
}

func (f *timetableFixture) timetable() *TimetableService {
	cache := NewCacheService(f.cacheRepo, nil, time.Minute, nil, true)
	return NewTimetableService(TimetableReaders{
		Schedules:   f.schedules,
		Allocations: f.allocations,
		Overrides:   f.overrides,
		Absences:    f.absences,
		Makeups:     f.makeups,
		Events:      f.events,
	}, cache, nil, f.renderer, f.audit, nil, TimetableConfig{
		Grid: timetable.DefaultGrid(),
		Now:  func() time.Time { return f.now },
	})
}

func (f *timetableFixture) overrideService() *OverrideService {
	return NewOverrideService(f.overrides, f.allocations, f.schedules, f.timetable(), f.notifier, f.audit, nil, nil, nil)
}

func (f *timetableFixture) absenceService() *AbsenceService {
	return NewAbsenceService(f.absences, f.allocations, f.schedules, f.notifier, f.audit, nil, nil, nil)
}

func (f *timetableFixture) makeupService() *MakeupService {
	svc := NewMakeupService(f.makeups, f.allocations, f.schedules, f.notifier, f.audit, nil, nil, nil)
	svc.now = func() time.Time { return f.now }
	return svc
}

func (f *timetableFixture) specialEventService() *SpecialEventService {
	svc := NewSpecialEventService(f.events, f.allocations, f.schedules, f.notifier, f.audit, nil, nil, nil, timetable.DefaultGrid())
	svc.now = func() time.Time { return f.now }
	return svc
}

var (
	adminActor   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	teacherActor = &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}
)

func errorCode(err error) string {
	return appErrors.FromError(err).Code
}
