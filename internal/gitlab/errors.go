package gitlab

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-known HTTP failure classes. Callers distinguish
// "the resource does not exist" from transport faults via errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("access forbidden")
)

// APIError is returned for any non-2xx response that is not covered by a
// sentinel error, and for transport-level failures after retries are
// exhausted.
type APIError struct {
	Status  int // 0 for transport-level failures
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gitlab: %s", e.Message)
	}
	return fmt.Sprintf("gitlab: status %d: %s", e.Status, e.Message)
}

// retryable reports whether a response status is worth retrying.
func retryable(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
