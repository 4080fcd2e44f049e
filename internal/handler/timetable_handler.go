package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/live-timetable-api/internal/dto"
	"github.com/noah-isme/live-timetable-api/internal/middleware"
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/service"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
	"github.com/noah-isme/live-timetable-api/pkg/response"
)

const streamHeartbeat = 25 * time.Second

type timetableReader interface {
	ResolveWeek(raw string) (time.Time, error)
	Bundle(ctx context.Context, scheduleID string, week time.Time) (*service.Bundle, bool, error)
	Effective(ctx context.Context, query dto.EffectiveQuery) (*service.EffectiveView, bool, error)
	Live(ctx context.Context, query dto.LiveQuery) (*service.LiveView, error)
	Export(ctx context.Context, query dto.WeekQuery, actor *models.JWTClaims) ([]byte, string, error)
	PollInterval() time.Duration
}

type changeSubscriber interface {
	Subscribe(ctx context.Context) <-chan service.Change
}

// TimetableHandler serves the compiled timetable and its change stream.
type TimetableHandler struct {
	timetable timetableReader
	changes   changeSubscriber
	metrics   *service.MetricsService
	heartbeat time.Duration
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(timetable timetableReader, changes changeSubscriber, metrics *service.MetricsService) *TimetableHandler {
	return &TimetableHandler{timetable: timetable, changes: changes, metrics: metrics, heartbeat: streamHeartbeat}
}

// Bundle godoc
// @Summary Stored layers of a schedule week
// @Description Allocations, overrides, absences, makeups and special events for one week, as stored.
// @Tags Timetable
// @Produce json
// @Param schedule_id query string false "Schedule ID, defaults to the current schedule"
// @Param week_start query string false "Any date of the week (YYYY-MM-DD), defaults to this week"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/bundle [get]
func (h *TimetableHandler) Bundle(c *gin.Context) {
	var query dto.WeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	week, err := h.timetable.ResolveWeek(query.WeekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	bundle, hit, err := h.timetable.Bundle(c.Request.Context(), query.ScheduleID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, bundle, hit)
}

// Effective godoc
// @Summary Compiled week
// @Description Merges overrides, absences, approved makeups and special events over the base allocations.
// @Tags Timetable
// @Produce json
// @Param schedule_id query string false "Schedule ID"
// @Param week_start query string false "Any date of the week (YYYY-MM-DD)"
// @Param day query string false "Only sessions meeting on this weekday"
// @Param room query string false "Room"
// @Param teacher query string false "Teacher name fragment"
// @Param section query string false "Section, lab and lecture groups match together"
// @Success 200 {object} response.Envelope
// @Router /timetable/effective [get]
func (h *TimetableHandler) Effective(c *gin.Context) {
	var query dto.EffectiveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	view, hit, err := h.timetable.Effective(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, view, hit)
}

// Live godoc
// @Summary Live session status
// @Description Sessions of the day with ongoing, upcoming, completed or absent status.
// @Tags Timetable
// @Produce json
// @Param schedule_id query string false "Schedule ID"
// @Param at query string false "RFC3339 instant, defaults to now"
// @Success 200 {object} response.Envelope
// @Router /timetable/live [get]
func (h *TimetableHandler) Live(c *gin.Context) {
	var query dto.LiveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	view, err := h.timetable.Live(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetPollInterval(c, h.timetable.PollInterval())
	response.OK(c, view, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Printable week
// @Tags Timetable
// @Produce application/pdf
// @Param schedule_id query string false "Schedule ID"
// @Param week_start query string false "Any date of the week (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /timetable/export.pdf [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.WeekQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	doc, filename, err := h.timetable.Export(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", doc)
}

// Changes godoc
// @Summary Change stream
// @Description Server-sent events naming the schedule weeks that changed. Clients re-fetch on each event.
// @Tags Timetable
// @Produce text/event-stream
// @Param schedule_id query string false "Only changes of this schedule"
// @Param Last-Event-ID header string false "Set by reconnecting clients; the ready event then asks for a resync"
// @Success 200 {string} string "event stream"
// @Router /timetable/changes [get]
func (h *TimetableHandler) Changes(c *gin.Context) {
	scheduleID := c.Query("schedule_id")
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream := h.changes.Subscribe(ctx)
	h.metrics.SubscriberDelta(1)
	defer h.metrics.SubscriberDelta(-1)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	poll := h.timetable.PollInterval()
	// a reconnecting client may have missed changes while it was away
	resync := c.GetHeader("Last-Event-ID") != ""
	response.OpenStream(c, poll, "ready", gin.H{"poll_interval_seconds": int(poll / time.Second), "resync": resync})

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-stream:
			if !ok {
				return
			}
			if scheduleID != "" && change.ScheduleID != scheduleID {
				continue
			}
			response.Event(c, changeEventID(change), "change", change)
		case <-ticker.C:
			response.Event(c, "", "ping", time.Now().UTC().Format(time.RFC3339))
		}
	}
}

func changeEventID(change service.Change) string {
	if change.At.IsZero() {
		return ""
	}
	return strconv.FormatInt(change.At.UnixNano(), 10)
}

func (h *TimetableHandler) respond(c *gin.Context, data interface{}, hit bool) {
	middleware.SetCacheHit(c, hit)
	middleware.SetPollInterval(c, h.timetable.PollInterval())
	response.OK(c, data, middleware.ExtractMeta(c))
}
