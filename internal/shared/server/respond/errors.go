package respond

import (
	"github.com/gin-gonic/gin"

	"mission-backend/internal/shared/telemetry"
)

// ErrorBody is the error object inside every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs and aborts with {"error":{code,message,details}}.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// ValidationError is shorthand for a 400 validation_error with one field issue.
func ValidationError(c *gin.Context, field, issue, message string) {
	Error(c, 400, "validation_error", message, []map[string]string{{"field": field, "issue": issue}})
}
