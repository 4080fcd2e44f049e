package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/live-timetable-api/internal/dto"
	"github.com/noah-isme/live-timetable-api/internal/models"
)

func TestSpecialEventServiceCreateFansOut(t *testing.T) {
	f := newTimetableFixture(t)
	svc := f.specialEventService()

	resp, err := svc.Create(context.Background(), dto.CreateSpecialEventRequest{
		Room:      "101",
		Building:  "Main",
		EventDate: "2025-03-10",
		TimeStart: strPtr("8:00 AM"),
		TimeEnd:   strPtr("9:30 AM"),
		Reason:    "Board meeting",
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, resp.AffectedAllocations)
	assert.Equal(t, "admin-1", resp.Event.CreatedBy)

	absences := f.absences.all()
	require.Len(t, absences, 1)
	assert.Equal(t, "a1", absences[0].AllocationID)
	assert.Equal(t, models.SpecialEventFacultyID, absences[0].FacultyID)
	assert.Equal(t, "Special event: Board meeting", absences[0].Reason)
	require.NotNil(t, absences[0].SpecialEventID)
	assert.Equal(t, resp.Event.ID, *absences[0].SpecialEventID)

	changes := f.notifier.all()
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeSpecialEvent, changes[0].Kind)
	assert.Equal(t, "sched-1", changes[0].ScheduleID)
	assert.Equal(t, []string{models.AuditActionEventCreate}, f.audit.actions())
}

func TestSpecialEventServiceUnboundedBlocksWholeDay(t *testing.T) {
	f := newTimetableFixture(t)

	resp, err := f.specialEventService().Create(context.Background(), dto.CreateSpecialEventRequest{
		Room:      "101",
		EventDate: "2025-03-11",
		Reason:    "Fumigation",
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, resp.AffectedAllocations)
}

func TestSpecialEventServiceNoAffectedSessions(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.specialEventService().Create(context.Background(), dto.CreateSpecialEventRequest{
		Room:      "999",
		EventDate: "2025-03-10",
		Reason:    "Nothing here",
	}, adminActor)
	require.Error(t, err)
	assert.Equal(t, "NO_AFFECTED_SESSIONS", errorCode(err))
	assert.Empty(t, f.events.items)
	assert.Empty(t, f.absences.all())
	assert.Empty(t, f.notifier.all())
}

func TestSpecialEventServiceRequiresLockedSchedule(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.specialEventService().Create(context.Background(), dto.CreateSpecialEventRequest{
		ScheduleID: "sched-draft",
		Room:       "101",
		EventDate:  "2025-03-10",
		Reason:     "x",
	}, adminActor)
	assert.Equal(t, "SCHEDULE_NOT_LOCKED", errorCode(err))
}

func TestSpecialEventServiceCancelKeepsFacultyAbsences(t *testing.T) {
	f := newTimetableFixture(t)
	svc := f.specialEventService()
	ctx := context.Background()
	tuesday := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	f.absences.items = []models.Absence{
		{ID: "self-1", AllocationID: "a2", ScheduleID: "sched-1", FacultyID: "t2", AbsenceDate: tuesday, Status: models.AbsenceStatusConfirmed},
	}
	resp, err := svc.Create(ctx, dto.CreateSpecialEventRequest{Room: "101", Building: "Main", EventDate: "2025-03-11", Reason: "Seminar"}, adminActor)
	require.NoError(t, err)
	require.Len(t, f.absences.all(), 2)

	require.NoError(t, svc.Cancel(ctx, resp.Event.ID, adminActor))
	remaining := f.absences.all()
	require.Len(t, remaining, 1)
	assert.Equal(t, "self-1", remaining[0].ID)
	assert.Empty(t, f.events.items)

	changes := f.notifier.all()
	require.Len(t, changes, 2)
	assert.Equal(t, "2025-03-10", changes[1].WeekStart)

	assert.Equal(t, "NOT_FOUND", errorCode(svc.Cancel(ctx, resp.Event.ID, adminActor)))
}

func TestSpecialEventServiceListDefaultsToCurrentWeek(t *testing.T) {
	f := newTimetableFixture(t)
	f.events.items = []models.SpecialEvent{
		{ID: "evt-1", Room: "101", EventDate: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{ID: "evt-2", Room: "101", EventDate: time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)},
		{ID: "evt-3", Room: "101", EventDate: time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)},
	}
	svc := f.specialEventService()

	events, err := svc.List(context.Background(), dto.SpecialEventQuery{})
	require.NoError(t, err)
	ids := []string{}
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"evt-2", "evt-3"}, ids)

	events, err = svc.List(context.Background(), dto.SpecialEventQuery{From: "2025-03-01", To: "2025-03-31"})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	_, err = svc.List(context.Background(), dto.SpecialEventQuery{From: "2025-03-31", To: "2025-03-01"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(err))
}
