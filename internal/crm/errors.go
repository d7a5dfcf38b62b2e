package crm

import (
	"errors"
	"fmt"
)

// Sentinel errors callers match with errors.Is
var (
	// ErrNotFound means the remote object does not exist (404)
	ErrNotFound = errors.New("crm: object not found")
	// ErrTimeout means the remote call exceeded its deadline
	ErrTimeout = errors.New("crm: request timed out")
)

// RemoteError is a non-2xx response from the CRM other than 404.
// The body is retained so callers can log the remote detail.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("crm: remote returned status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether the failure is transient (429 or 5xx)
func (e *RemoteError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
