package sfx

import (
	"fmt"
	"net/http"
)

// APIError is the structured failure raised by a SoundGenerator. It carries
// the HTTP status code (0 when the request never got a response) and the
// decoded response body, which may be a JSON object or a raw string.
type APIError struct {
	StatusCode int
	Body       any
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("elevenlabs api error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("elevenlabs api error (status %d)", e.StatusCode)
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code from the remote API to an error
// kind and a retry decision. Rate limits and server errors are retryable;
// everything else fails the call immediately.
func classifyStatus(status int) (Kind, bool) {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication, false
	case status == http.StatusForbidden:
		return KindPermission, false
	case status == http.StatusTooManyRequests:
		return KindRateLimit, true
	case status == http.StatusBadRequest:
		return KindGeneration, false
	case status >= http.StatusInternalServerError:
		return KindGeneration, true
	default:
		return KindAPI, false
	}
}

// apiErrorMessage extracts a human-readable message from a remote failure.
// The ElevenLabs API nests details as {"detail": {"message": "..."}} or
// {"detail": "..."}; anything else falls back to a generic rendering of the
// status code and body.
func apiErrorMessage(apiErr *APIError) string {
	if body, ok := apiErr.Body.(map[string]any); ok {
		switch detail := body["detail"].(type) {
		case map[string]any:
			if msg, ok := detail["message"].(string); ok {
				return msg
			}
		case string:
			return detail
		}
	}
	if apiErr.Body != nil {
		return fmt.Sprintf("status %d: %v", apiErr.StatusCode, apiErr.Body)
	}
	return fmt.Sprintf("status %d", apiErr.StatusCode)
}
