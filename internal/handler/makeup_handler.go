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

type makeupManager interface {
	Request(ctx context.Context, req dto.CreateMakeupRequest, actor *models.JWTClaims) (*models.MakeupRequest, error)
	RequestSelf(ctx context.Context, req dto.CreateMakeupRequest, actor *models.JWTClaims) (*models.MakeupRequest, error)
	Review(ctx context.Context, id string, req dto.ReviewMakeupRequest, actor *models.JWTClaims) (*models.MakeupRequest, error)
	List(ctx context.Context, query dto.MakeupQuery, actor *models.JWTClaims) ([]models.MakeupRequest, *models.Pagination, error)
}

// MakeupHandler files and reviews makeup requests.
type MakeupHandler struct {
	makeups makeupManager
}

// NewMakeupHandler constructs the handler.
func NewMakeupHandler(makeups makeupManager) *MakeupHandler {
	return &MakeupHandler{makeups: makeups}
}

// List godoc
// @Summary List makeup requests
// @Description Teachers only see their own requests.
// @Tags Timetable Makeups
// @Produce json
// @Param schedule_id query string false "Schedule ID"
// @Param status query []string false "pending, approved or rejected" collectionFormat(multi)
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetable/makeups [get]
func (h *MakeupHandler) List(c *gin.Context) {
	var query dto.MakeupQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	requests, pagination, err := h.makeups.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Request godoc
// @Summary File a makeup on behalf of faculty
// @Tags Timetable Makeups
// @Accept json
// @Produce json
// @Param payload body dto.CreateMakeupRequest true "Makeup request"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/makeups [post]
func (h *MakeupHandler) Request(c *gin.Context) {
	h.create(c, h.makeups.Request)
}

// RequestSelf godoc
// @Summary File a makeup for an own session
// @Tags Timetable Makeups
// @Accept json
// @Produce json
// @Param payload body dto.CreateMakeupRequest true "Makeup request"
// @Success 201 {object} response.Envelope
// @Router /timetable/makeups/self [post]
func (h *MakeupHandler) RequestSelf(c *gin.Context) {
	h.create(c, h.makeups.RequestSelf)
}

func (h *MakeupHandler) create(c *gin.Context, create func(context.Context, dto.CreateMakeupRequest, *models.JWTClaims) (*models.MakeupRequest, error)) {
	var req dto.CreateMakeupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Review godoc
// @Summary Approve or reject a makeup
// @Tags Timetable Makeups
// @Accept json
// @Produce json
// @Param id path string true "Makeup request ID"
// @Param payload body dto.ReviewMakeupRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/makeups/{id} [patch]
func (h *MakeupHandler) Review(c *gin.Context) {
	var req dto.ReviewMakeupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.makeups.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
