package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/live-timetable-api/internal/dto"
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
)

type overrideStub struct {
	saved     dto.SaveOverrideRequest
	removed   string
	reset     dto.ResetWeekQuery
	commitErr error
	actor     *models.JWTClaims
}

func (s *overrideStub) Save(ctx context.Context, req dto.SaveOverrideRequest, actor *models.JWTClaims) (*models.Override, error) {
	s.saved, s.actor = req, actor
	return &models.Override{ID: "ovr-1", AllocationID: req.AllocationID}, nil
}

func (s *overrideStub) Remove(ctx context.Context, id string, actor *models.JWTClaims) error {
	if id == "missing" {
		return appErrors.Clone(appErrors.ErrNotFound, "override not found")
	}
	s.removed = id
	return nil
}

func (s *overrideStub) ResetWeek(ctx context.Context, query dto.ResetWeekQuery, actor *models.JWTClaims) (int64, error) {
	s.reset = query
	return 3, nil
}

func (s *overrideStub) ProposeMove(ctx context.Context, req dto.MoveRequest) (*dto.ProposeMoveResponse, error) {
	return &dto.ProposeMoveResponse{
		Report:  timetable.ConflictReport{Conflict: true, Day: req.Day, Collisions: []timetable.Collision{{Key: "a2", Dimension: timetable.DimensionRoom}}},
		Prefill: dto.MovePrefill{Day: req.Day},
	}, nil
}

func (s *overrideStub) CommitMove(ctx context.Context, req dto.CommitMoveRequest, actor *models.JWTClaims) (*models.Override, error) {
	if s.commitErr != nil {
		return nil, s.commitErr
	}
	return &models.Override{ID: "ovr-2", AllocationID: req.Key}, nil
}

func overrideRouter(stub *overrideStub) *gin.Engine {
	h := NewOverrideHandler(stub)
	return newTestRouter(testAdmin, func(r *gin.RouterGroup) {
		r.POST("/timetable/moves/propose", h.ProposeMove)
		r.POST("/timetable/moves/commit", h.CommitMove)
		r.PUT("/timetable/overrides", h.Save)
		r.DELETE("/timetable/overrides", h.ResetWeek)
		r.DELETE("/timetable/overrides/:id", h.Remove)
	})
}

func TestOverrideHandlerProposeReportsConflictAsSuccess(t *testing.T) {
	rec := perform(t, overrideRouter(&overrideStub{}), http.MethodPost, "/timetable/moves/propose",
		dto.MoveRequest{WeekStart: "2025-03-10", Key: "a1", Day: "Tue", Start: "9:00 AM"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conflict":true`)
	assert.Contains(t, rec.Body.String(), `"dimension":"ROOM"`)
}

func TestOverrideHandlerCommitConflict(t *testing.T) {
	report := timetable.ConflictReport{Conflict: true, Day: "Tue", Collisions: []timetable.Collision{{Key: "a2", CourseCode: "CS102", Dimension: timetable.DimensionRoom}}}
	occupied := appErrors.Clone(appErrors.ErrSlotOccupied, "target slot is occupied by CS102")
	stub := &overrideStub{commitErr: appErrors.WithDetails(occupied, report)}
	rec := perform(t, overrideRouter(stub), http.MethodPost, "/timetable/moves/commit",
		dto.CommitMoveRequest{MoveRequest: dto.MoveRequest{WeekStart: "2025-03-10", Key: "a1", Day: "Tue", Start: "9:00 AM"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SLOT_OCCUPIED", decode(t, rec).Error.Code)
	assert.Contains(t, rec.Body.String(), `"details":{"conflict":true`)
	assert.Contains(t, rec.Body.String(), `"course_code":"CS102"`)
}

func TestOverrideHandlerSave(t *testing.T) {
	stub := &overrideStub{}
	note := "lab"
	rec := perform(t, overrideRouter(stub), http.MethodPut, "/timetable/overrides",
		dto.SaveOverrideRequest{AllocationID: "a1", WeekStart: "2025-03-10", Note: &note})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", stub.saved.AllocationID)
	assert.Equal(t, "lab", *stub.saved.Note)
	assert.Equal(t, testAdmin, stub.actor)

	rec = perform(t, overrideRouter(stub), http.MethodPut, "/timetable/overrides", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideHandlerRemoveAndReset(t *testing.T) {
	stub := &overrideStub{}
	router := overrideRouter(stub)

	rec := perform(t, router, http.MethodDelete, "/timetable/overrides/ovr-9", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ovr-9", stub.removed)

	rec = perform(t, router, http.MethodDelete, "/timetable/overrides/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(t, router, http.MethodDelete, "/timetable/overrides?schedule_id=sched-1&week_start=2025-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ResetWeekQuery{ScheduleID: "sched-1", WeekStart: "2025-03-10"}, stub.reset)
	assert.JSONEq(t, `{"removed":3}`, string(decode(t, rec).Data))
}
