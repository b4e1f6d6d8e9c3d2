package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/server/respond"
	"notes-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 error body. A recording that
// panics mid-request stays in its tracker state; the client can abort it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			if id, ok := c.Get("recordingId"); ok {
				fields["recording_id"] = id
			}
			if id, ok := c.Get("noteId"); ok {
				fields["note_id"] = id
			}
			telemetry.Error("panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
