package telegram

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps network and HTTP failures talking to the Bot API.
	ErrTransport = errors.New("telegram: transport error")

	// ErrMalformedResponse wraps responses that could not be decoded.
	ErrMalformedResponse = errors.New("telegram: malformed response")

	// ErrMissingToken is returned by NewClient when no bot token is configured.
	ErrMissingToken = errors.New("telegram: bot token required")
)

// APIError is a well-formed Bot API reply with "ok": false.
// Callers can use errors.As to extract it:
//
//	var apiErr *APIError
//	if errors.As(err, &apiErr) && apiErr.Code == 401 { ... }
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int // Seconds, set on 429 responses
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// IsAPIError checks whether err is an *APIError with the given code.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
