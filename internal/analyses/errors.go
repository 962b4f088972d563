package analyses

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"mission-backend/internal/advisory"
	"mission-backend/internal/usage"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrNotReady              = errors.New("analysis not ready")
)

// Error codes stored with failed or degraded analyses.
const (
	ErrorCodeValidation          = "VALIDATION_ERROR"
	ErrorCodeAdvisoryTimeout     = "ADVISORY_TIMEOUT"
	ErrorCodeAdvisoryMalformed   = "ADVISORY_MALFORMED"
	ErrorCodeAdvisoryUnavailable = "ADVISORY_UNAVAILABLE"
	ErrorCodeQuota               = "ADVISORY_QUOTA"
	ErrorCodeStorage             = "STORAGE_ERROR"
	ErrorCodeInternal            = "INTERNAL_ERROR"
)

// MinTextLength is the shortest statement accepted for analysis.
const MinTextLength = 10

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Issue   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// classifyFailure maps an error to a stored error code and whether retrying
// could help.
func classifyFailure(err error) (string, bool) {
	switch {
	case err == nil:
		return ErrorCodeInternal, false
	case errors.Is(err, ErrValidation):
		return ErrorCodeValidation, false
	case errors.Is(err, usage.ErrLimitReached):
		return ErrorCodeQuota, false
	case errors.Is(err, advisory.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorCodeAdvisoryTimeout, true
	case errors.Is(err, advisory.ErrMalformed):
		return ErrorCodeAdvisoryMalformed, false
	case errors.Is(err, advisory.ErrUnavailable):
		return ErrorCodeAdvisoryUnavailable, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "storage") || strings.Contains(msg, "repo") || strings.Contains(msg, "sql") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

// fallbackReason is the user-facing explanation for a degraded result. Raw
// error detail stays in logs and the stored error message.
func fallbackReason(code string) string {
	switch code {
	case ErrorCodeAdvisoryTimeout:
		return "advisory_timeout"
	case ErrorCodeAdvisoryMalformed:
		return "advisory_malformed"
	case ErrorCodeQuota:
		return "quota_exceeded"
	default:
		return "advisory_unavailable"
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
