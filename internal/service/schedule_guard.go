package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/live-timetable-api/internal/models"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
)

type scheduleFinder interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type allocationFinder interface {
	GetByID(ctx context.Context, id string) (*models.Allocation, error)
}

// lockedAllocation loads an allocation and its schedule, refusing when the schedule is not locked.
func lockedAllocation(ctx context.Context, allocations allocationFinder, schedules scheduleFinder, allocationID string) (*models.Allocation, *models.Schedule, error) {
	allocation, err := allocations.GetByID(ctx, allocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}
	schedule, err := lockedSchedule(ctx, schedules, allocation.ScheduleID)
	if err != nil {
		return nil, nil, err
	}
	return allocation, schedule, nil
}

func lockedSchedule(ctx context.Context, schedules scheduleFinder, scheduleID string) (*models.Schedule, error) {
	schedule, err := schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !schedule.IsLocked {
		return nil, appErrors.ErrScheduleNotLocked
	}
	return schedule, nil
}
