package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Headers the timetable API reads from browsers. Last-Event-ID is sent by clients resuming the
// change stream.
var DefaultAllowedHeaders = []string{"Authorization", "Content-Type", "Accept", "X-Request-ID", "Last-Event-ID", "Cache-Control"}

// Headers browsers may read from responses, such as the export filename.
var DefaultExposedHeaders = []string{"X-Request-ID", "Content-Disposition"}

type Options struct {
	// Empty means any origin, answered without credentials.
	AllowedOrigins []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

func (o Options) withDefaults() Options {
	if len(o.AllowedHeaders) == 0 {
		o.AllowedHeaders = DefaultAllowedHeaders
	}
	if len(o.ExposedHeaders) == 0 {
		o.ExposedHeaders = DefaultExposedHeaders
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 10 * time.Minute
	}
	return o
}

// New returns the CORS middleware. Preflights are answered here and never reach the handlers.
func New(opts Options) gin.HandlerFunc {
	opts = opts.withDefaults()
	allowAll := len(opts.AllowedOrigins) == 0
	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, origin := range opts.AllowedOrigins {
		origins[normalizeOrigin(origin)] = struct{}{}
	}
	allowHeaders := strings.Join(opts.AllowedHeaders, ", ")
	exposeHeaders := strings.Join(opts.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(opts.MaxAge / time.Second))

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
		case allowAll:
			h.Set("Access-Control-Allow-Origin", "*")
		case allowed(origins, origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		default:
			if isPreflight(c.Request) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		if isPreflight(c.Request) {
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		if origin != "" {
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}
		c.Next()
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

func allowed(origins map[string]struct{}, origin string) bool {
	_, ok := origins[normalizeOrigin(origin)]
	return ok
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
