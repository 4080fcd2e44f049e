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

type absenceManager interface {
	Mark(ctx context.Context, req dto.CreateAbsenceRequest, actor *models.JWTClaims) (*models.Absence, error)
	ReportSelf(ctx context.Context, req dto.CreateAbsenceRequest, actor *models.JWTClaims) (*models.Absence, error)
	Review(ctx context.Context, id string, req dto.ReviewAbsenceRequest, actor *models.JWTClaims) (*models.Absence, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	List(ctx context.Context, query dto.AbsenceQuery, actor *models.JWTClaims) ([]models.Absence, error)
}

// AbsenceHandler records and reviews per-date absences.
type AbsenceHandler struct {
	absences absenceManager
}

// NewAbsenceHandler constructs the handler.
func NewAbsenceHandler(absences absenceManager) *AbsenceHandler {
	return &AbsenceHandler{absences: absences}
}

// List godoc
// @Summary List absences
// @Description Teachers only see their own absences.
// @Tags Timetable Absences
// @Produce json
// @Param schedule_id query string false "Schedule ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetable/absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	var query dto.AbsenceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	absences, err := h.absences.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absences, nil)
}

// Mark godoc
// @Summary Mark a session absent
// @Description Defaults the faculty to the allocation's teacher.
// @Tags Timetable Absences
// @Accept json
// @Produce json
// @Param payload body dto.CreateAbsenceRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/absences [post]
func (h *AbsenceHandler) Mark(c *gin.Context) {
	h.create(c, h.absences.Mark)
}

// ReportSelf godoc
// @Summary Report own absence
// @Tags Timetable Absences
// @Accept json
// @Produce json
// @Param payload body dto.CreateAbsenceRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /timetable/absences/self [post]
func (h *AbsenceHandler) ReportSelf(c *gin.Context) {
	h.create(c, h.absences.ReportSelf)
}

func (h *AbsenceHandler) create(c *gin.Context, create func(context.Context, dto.CreateAbsenceRequest, *models.JWTClaims) (*models.Absence, error)) {
	var req dto.CreateAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	absence, err := create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// Review godoc
// @Summary Confirm or dispute an absence
// @Tags Timetable Absences
// @Accept json
// @Produce json
// @Param id path string true "Absence ID"
// @Param payload body dto.ReviewAbsenceRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /timetable/absences/{id} [patch]
func (h *AbsenceHandler) Review(c *gin.Context) {
	var req dto.ReviewAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	absence, err := h.absences.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absence, nil)
}

// Delete godoc
// @Summary Unmark an absence
// @Tags Timetable Absences
// @Param id path string true "Absence ID"
// @Success 204
// @Router /timetable/absences/{id} [delete]
func (h *AbsenceHandler) Delete(c *gin.Context) {
	if err := h.absences.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
