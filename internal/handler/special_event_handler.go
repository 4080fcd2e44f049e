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

type specialEventManager interface {
	Create(ctx context.Context, req dto.CreateSpecialEventRequest, actor *models.JWTClaims) (*dto.SpecialEventResponse, error)
	Cancel(ctx context.Context, id string, actor *models.JWTClaims) error
	List(ctx context.Context, query dto.SpecialEventQuery) ([]models.SpecialEvent, error)
}

// SpecialEventHandler blocks rooms for special events.
type SpecialEventHandler struct {
	events specialEventManager
}

// NewSpecialEventHandler constructs the handler.
func NewSpecialEventHandler(events specialEventManager) *SpecialEventHandler {
	return &SpecialEventHandler{events: events}
}

// Create godoc
// @Summary Create a special event
// @Description Blocks a room on a date and marks every session held there absent.
// @Tags Timetable Special Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateSpecialEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/special-events [post]
func (h *SpecialEventHandler) Create(c *gin.Context) {
	var req dto.CreateSpecialEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.events.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List special events
// @Tags Timetable Special Events
// @Produce json
// @Param from query string false "First date (YYYY-MM-DD), defaults to this Monday"
// @Param to query string false "Last date (YYYY-MM-DD), defaults to this Sunday"
// @Success 200 {object} response.Envelope
// @Router /timetable/special-events [get]
func (h *SpecialEventHandler) List(c *gin.Context) {
	var query dto.SpecialEventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	events, err := h.events.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Cancel godoc
// @Summary Cancel a special event
// @Description Removes the event and the absences it generated.
// @Tags Timetable Special Events
// @Param id path string true "Event ID"
// @Success 204
// @Router /timetable/special-events/{id} [delete]
func (h *SpecialEventHandler) Cancel(c *gin.Context) {
	if err := h.events.Cancel(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
