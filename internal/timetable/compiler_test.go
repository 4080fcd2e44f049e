package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/live-timetable-api/internal/models"
)

func strPtr(s string) *string { return &s }

var testWeek = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func fixtureAllocations() []models.Allocation {
	return []models.Allocation{
		{
			ID:          "alloc-a",
			ScheduleID:  "sched-1",
			CourseCode:  "IT101",
			CourseName:  "Intro to Computing",
			Section:     "BSIT-1A_Lec",
			DayPattern:  "MWF",
			TimeRange:   "9:00 AM - 10:00 AM",
			Building:    "Main",
			Room:        "101",
			TeacherID:   strPtr("fac-reyes"),
			TeacherName: strPtr("Dr. Reyes"),
			College:     strPtr("CCS"),
		},
		{
			ID:          "alloc-b",
			ScheduleID:  "sched-1",
			CourseCode:  "IT202",
			CourseName:  "Data Structures",
			Section:     "BSIT-2A",
			DayPattern:  "TTH",
			TimeRange:   "1:00 PM - 2:30 PM",
			Building:    "Main",
			Room:        "301",
			TeacherID:   strPtr("fac-cruz"),
			TeacherName: strPtr("Dr. Cruz"),
		},
	}
}

func findSession(t *testing.T, sessions []EffectiveSession, key string) EffectiveSession {
	t.Helper()
	for _, s := range sessions {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("session %s not found", key)
	return EffectiveSession{}
}

func TestCompileBaseOnly(t *testing.T) {
	sessions := Compile(CompileInput{WeekStart: testWeek, Allocations: fixtureAllocations()})
	require.Len(t, sessions, 2)

	a := sessions[0]
	assert.Equal(t, "alloc-a", a.Key)
	assert.Equal(t, KindBase, a.Kind)
	assert.Equal(t, "MWF", a.Day)
	assert.Equal(t, "Dr. Reyes", a.TeacherName)
	assert.Equal(t, "CCS", a.College)
	assert.True(t, a.Draggable)
	assert.False(t, a.HasOverride)
}

func TestCompileIsDeterministic(t *testing.T) {
	in := CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Overrides: []models.Override{
			{ID: "ov-1", AllocationID: "alloc-b", WeekStart: testWeek, Room: strPtr("305")},
		},
		Absences: []models.Absence{
			{ID: "abs-2", AllocationID: "alloc-a", AbsenceDate: testWeek.AddDate(0, 0, 4), Status: models.AbsenceStatusConfirmed},
			{ID: "abs-1", AllocationID: "alloc-a", AbsenceDate: testWeek, Status: models.AbsenceStatusConfirmed},
		},
		Makeups: []models.MakeupRequest{
			{ID: "mk-1", AllocationID: "alloc-a", RequestedDate: testWeek.AddDate(0, 0, 5), RequestedTime: "8:00 AM - 9:00 AM", Status: models.MakeupStatusApproved},
		},
		Events: []models.SpecialEvent{
			{ID: "ev-1", Room: "101", Building: "Main", EventDate: testWeek.AddDate(0, 0, 2), Reason: "Board exam"},
		},
	}

	first := Compile(in)
	second := Compile(in)
	assert.Equal(t, first, second)
}

func TestCompileDoesNotMutateInput(t *testing.T) {
	allocations := fixtureAllocations()
	overrides := []models.Override{
		{ID: "ov-1", AllocationID: "alloc-a", WeekStart: testWeek, Day: strPtr("Tue"), Time: strPtr("3:00 PM - 4:00 PM")},
	}
	before := fixtureAllocations()

	_ = Compile(CompileInput{WeekStart: testWeek, Allocations: allocations, Overrides: overrides})

	assert.Equal(t, before, allocations)
	assert.Equal(t, "Tue", *overrides[0].Day)
}

func TestCompileOverrideRoomOnly(t *testing.T) {
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Overrides: []models.Override{
			{ID: "ov-1", AllocationID: "alloc-a", WeekStart: testWeek, Room: strPtr("205"), Note: strPtr("projector broken")},
		},
	})

	a := findSession(t, sessions, "alloc-a")
	assert.Equal(t, KindOverridden, a.Kind)
	assert.True(t, a.HasOverride)
	assert.Equal(t, "ov-1", a.OverrideID)
	assert.Equal(t, "projector broken", a.OverrideNote)
	assert.Equal(t, "205", a.Room)
	assert.Equal(t, "Main", a.Building)
	assert.Equal(t, "MWF", a.Day)
	assert.Equal(t, "9:00 AM - 10:00 AM", a.Time)

	b := findSession(t, sessions, "alloc-b")
	assert.False(t, b.HasOverride)
}

func TestCompileOverrideBlankFieldsFallBack(t *testing.T) {
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Overrides: []models.Override{
			{ID: "ov-1", AllocationID: "alloc-b", WeekStart: testWeek, Day: strPtr("Fri"), Time: strPtr(" "), Room: strPtr("")},
		},
	})
	b := findSession(t, sessions, "alloc-b")
	assert.Equal(t, "Fri", b.Day)
	assert.Equal(t, "1:00 PM - 2:30 PM", b.Time)
	assert.Equal(t, "301", b.Room)
}

func TestCompileIgnoresOverridesFromOtherWeeks(t *testing.T) {
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Overrides: []models.Override{
			{ID: "ov-old", AllocationID: "alloc-a", WeekStart: testWeek.AddDate(0, 0, -7), Room: strPtr("999")},
		},
	})
	a := findSession(t, sessions, "alloc-a")
	assert.Equal(t, "101", a.Room)
	assert.Equal(t, KindBase, a.Kind)
}

func TestCompileApprovedMakeupAddsSyntheticEntry(t *testing.T) {
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Makeups: []models.MakeupRequest{
			{
				ID:            "mk-1",
				AllocationID:  "alloc-a",
				RequestedDate: monday,
				RequestedTime: "1:00 PM - 2:30 PM",
				RequestedRoom: strPtr("201"),
				Status:        models.MakeupStatusApproved,
			},
			{ID: "mk-2", AllocationID: "alloc-a", RequestedDate: monday, RequestedTime: "3:00 PM - 4:00 PM", Status: models.MakeupStatusPending},
			{ID: "mk-3", AllocationID: "alloc-a", RequestedDate: monday, RequestedTime: "3:00 PM - 4:00 PM", Status: models.MakeupStatusRejected},
		},
	})
	require.Len(t, sessions, 3)

	makeup := findSession(t, sessions, "makeup:mk-1")
	assert.Equal(t, KindMakeup, makeup.Kind)
	assert.True(t, makeup.IsMakeup)
	assert.Equal(t, "mk-1", makeup.MakeupID)
	assert.Equal(t, "Mon", makeup.Day)
	assert.Equal(t, "1:00 PM - 2:30 PM", makeup.Time)
	assert.Equal(t, "201", makeup.Room)
	assert.Equal(t, "IT101", makeup.CourseCode)
	assert.Equal(t, "BSIT-1A_Lec", makeup.Section)
	assert.Equal(t, "Dr. Reyes", makeup.TeacherName)
	assert.False(t, makeup.Draggable)
	require.NotNil(t, makeup.Date)
	assert.Equal(t, monday, *makeup.Date)

	original := findSession(t, sessions, "alloc-a")
	assert.Equal(t, "MWF", original.Day)
	assert.Equal(t, "9:00 AM - 10:00 AM", original.Time)
	assert.Equal(t, "101", original.Room)
	assert.True(t, original.Days().Has(time.Monday))
	assert.True(t, original.Days().Has(time.Wednesday))
	assert.True(t, original.Days().Has(time.Friday))
}

func TestCompileMakeupRoomFallsBackAndSkipsOrphans(t *testing.T) {
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Makeups: []models.MakeupRequest{
			{ID: "mk-1", AllocationID: "alloc-b", RequestedDate: testWeek.AddDate(0, 0, 5), RequestedTime: "8:00 AM - 9:30 AM", Status: models.MakeupStatusApproved},
			{ID: "mk-2", AllocationID: "missing", RequestedDate: testWeek, RequestedTime: "8:00 AM - 9:30 AM", Status: models.MakeupStatusApproved},
			{ID: "mk-3", AllocationID: "alloc-b", RequestedDate: testWeek.AddDate(0, 0, 9), RequestedTime: "8:00 AM - 9:30 AM", Status: models.MakeupStatusApproved},
		},
	})
	require.Len(t, sessions, 3)
	makeup := findSession(t, sessions, "makeup:mk-1")
	assert.Equal(t, "301", makeup.Room)
	assert.Equal(t, "Sat", makeup.Day)
}

func TestCompileSpecialEvents(t *testing.T) {
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Events: []models.SpecialEvent{
			{ID: "ev-1", Room: "101", Building: "Main", EventDate: testWeek.AddDate(0, 0, 2), Reason: "Board exam"},
			{ID: "ev-2", Room: "301", EventDate: testWeek.AddDate(0, 0, 1), TimeStart: strPtr("1:00 PM"), TimeEnd: strPtr("3:00 PM"), Reason: "Seminar"},
			{ID: "ev-3", Room: "301", EventDate: testWeek.AddDate(0, 0, 14), Reason: "Later"},
		},
	})
	require.Len(t, sessions, 4)

	whole := findSession(t, sessions, "event:ev-1")
	assert.Equal(t, KindSpecialEvent, whole.Kind)
	assert.True(t, whole.IsSpecialEvent)
	assert.False(t, whole.Draggable)
	assert.Equal(t, "Wed", whole.Day)
	assert.Equal(t, "7:00 AM - 9:00 PM", whole.Time)
	assert.Equal(t, "Board exam", whole.CourseName)

	bounded := findSession(t, sessions, "event:ev-2")
	assert.Equal(t, "Tue", bounded.Day)
	assert.Equal(t, "1:00 PM - 3:00 PM", bounded.Time)
}

func TestCompileSyntheticKeysAreDisjoint(t *testing.T) {
	allocations := fixtureAllocations()
	allocations[0].ID = "1"
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: allocations,
		Makeups: []models.MakeupRequest{
			{ID: "1", AllocationID: "1", RequestedDate: testWeek, RequestedTime: "1:00 PM - 2:00 PM", Status: models.MakeupStatusApproved},
		},
		Events: []models.SpecialEvent{{ID: "1", Room: "404", EventDate: testWeek}},
	})
	seen := make(map[string]bool)
	for _, s := range sessions {
		require.False(t, seen[s.Key], s.Key)
		seen[s.Key] = true
	}
	assert.Len(t, seen, 4)
}

func TestCompileAbsentDates(t *testing.T) {
	sessions := Compile(CompileInput{
		WeekStart:   testWeek,
		Allocations: fixtureAllocations(),
		Absences: []models.Absence{
			{ID: "abs-1", AllocationID: "alloc-a", AbsenceDate: testWeek.AddDate(0, 0, 2), Status: models.AbsenceStatusConfirmed},
			{ID: "abs-2", AllocationID: "alloc-a", AbsenceDate: testWeek.AddDate(0, 0, 2), FacultyID: models.SpecialEventFacultyID, Status: models.AbsenceStatusConfirmed},
			{ID: "abs-3", AllocationID: "alloc-b", AbsenceDate: testWeek.AddDate(0, 0, 1), Status: models.AbsenceStatusDisputed},
		},
	})
	assert.Equal(t, []string{"2025-03-12"}, findSession(t, sessions, "alloc-a").AbsentDates)
	assert.Empty(t, findSession(t, sessions, "alloc-b").AbsentDates)
}
