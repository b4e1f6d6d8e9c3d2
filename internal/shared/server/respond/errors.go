package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/telemetry"
)

// ErrorBody is the payload under the "error" key.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// contextFields are copied from the gin context into the log line when set.
var contextFields = map[string]string{
	"requestId":   "request_id",
	"userId":      "user_id",
	"noteId":      "note_id",
	"recordingId": "recording_id",
}

// Error aborts the request with the standard error envelope. Server faults
// log at error level, client faults at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"path":    c.Request.URL.Path,
		"method":  c.Request.Method,
	}
	for key, field := range contextFields {
		if v := c.GetString(key); v != "" {
			fields[field] = v
		}
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}
