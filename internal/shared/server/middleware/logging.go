package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/telemetry"
)

// quietPaths are polled by load balancers and scrapers; only failures are logged.
var quietPaths = map[string]bool{
	"/health":        true,
	"/api/v1/health": true,
	"/metrics":       true,
}

// Logging writes one request.complete line per request, carrying the note,
// recording and state transition that handlers tagged on the context.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		if quietPaths[c.Request.URL.Path] && status < http.StatusInternalServerError {
			return
		}

		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             c.FullPath(),
			"status":            status,
			"status_transition": c.GetString("statusTransition"),
			"duration_ms":       float64(time.Since(start).Microseconds()) / 1000.0,
			"user_id":           c.GetString(userIDKey),
			"note_id":           c.GetString("noteId"),
			"recording_id":      c.GetString("recordingId"),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if isGuest, ok := c.Get("isGuest"); ok {
			fields["is_guest"] = isGuest
		}
		telemetry.Info("request.complete", fields)
	}
}
