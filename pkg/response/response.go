package response

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/live-timetable-api/internal/models"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
)

// Envelope is the JSON body of every non-streaming response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Timetable data changes under clients at any moment, so nothing here is cacheable downstream.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

func OK(c *gin.Context, data interface{}, meta map[string]interface{}) {
	JSON(c, http.StatusOK, data, nil, meta)
}

func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes err in the envelope. Errors without an API code surface as INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// Attachment sends body as a download named filename.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	noStore(c)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}

// OpenStream switches the response to server-sent events and sends the opening event. retry tells
// clients how long to wait before reconnecting.
func OpenStream(c *gin.Context, retry time.Duration, name string, data interface{}) {
	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	event := sse.Event{Event: name, Data: data}
	if retry > 0 {
		event.Retry = uint(retry / time.Millisecond)
	}
	c.Render(-1, event)
	c.Writer.Flush()
}

// Event writes one server-sent event and flushes it. An empty id leaves the client's last event
// id unchanged.
func Event(c *gin.Context, id, name string, data interface{}) {
	c.Render(-1, sse.Event{Id: id, Event: name, Data: data})
	c.Writer.Flush()
}
