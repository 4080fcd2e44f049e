package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/live-timetable-api/internal/dto"
	"github.com/noah-isme/live-timetable-api/internal/models"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
	"github.com/noah-isme/live-timetable-api/pkg/response"
)

type overrideManager interface {
	Save(ctx context.Context, req dto.SaveOverrideRequest, actor *models.JWTClaims) (*models.Override, error)
	Remove(ctx context.Context, id string, actor *models.JWTClaims) error
	ResetWeek(ctx context.Context, query dto.ResetWeekQuery, actor *models.JWTClaims) (int64, error)
	ProposeMove(ctx context.Context, req dto.MoveRequest) (*dto.ProposeMoveResponse, error)
	CommitMove(ctx context.Context, req dto.CommitMoveRequest, actor *models.JWTClaims) (*models.Override, error)
}

// OverrideHandler exposes per-week reschedules and drag and drop moves.
type OverrideHandler struct {
	overrides overrideManager
}

// NewOverrideHandler constructs the handler.
func NewOverrideHandler(overrides overrideManager) *OverrideHandler {
	return &OverrideHandler{overrides: overrides}
}

// ProposeMove godoc
// @Summary Check a drop
// @Description Runs the conflict detector for a session dropped on a new day, time or room. Nothing is saved; a conflict is reported, not rejected.
// @Tags Timetable Moves
// @Accept json
// @Produce json
// @Param payload body dto.MoveRequest true "Drop target"
// @Success 200 {object} response.Envelope
// @Router /timetable/moves/propose [post]
func (h *OverrideHandler) ProposeMove(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.overrides.ProposeMove(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CommitMove godoc
// @Summary Confirm a drop
// @Description Re-checks the target against the current week and saves the move as the week's override.
// @Tags Timetable Moves
// @Accept json
// @Produce json
// @Param payload body dto.CommitMoveRequest true "Confirmed move"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/moves/commit [post]
func (h *OverrideHandler) CommitMove(c *gin.Context) {
	var req dto.CommitMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	override, err := h.overrides.CommitMove(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// Save godoc
// @Summary Upsert a week override
// @Tags Timetable Overrides
// @Accept json
// @Produce json
// @Param payload body dto.SaveOverrideRequest true "Override"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/overrides [put]
func (h *OverrideHandler) Save(c *gin.Context) {
	var req dto.SaveOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	override, err := h.overrides.Save(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// Remove godoc
// @Summary Delete a week override
// @Tags Timetable Overrides
// @Param id path string true "Override ID"
// @Success 204
// @Router /timetable/overrides/{id} [delete]
func (h *OverrideHandler) Remove(c *gin.Context) {
	if err := h.overrides.Remove(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ResetWeek godoc
// @Summary Reset a week
// @Description Removes every override of the schedule week. Other weeks are untouched.
// @Tags Timetable Overrides
// @Produce json
// @Param schedule_id query string true "Schedule ID"
// @Param week_start query string true "Any date of the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetable/overrides [delete]
func (h *OverrideHandler) ResetWeek(c *gin.Context) {
	var query dto.ResetWeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	removed, err := h.overrides.ResetWeek(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ResetWeekResponse{Removed: removed}, nil)
}
