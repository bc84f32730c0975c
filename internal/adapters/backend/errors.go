package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for backend failures.
var (
	ErrNotFound    = errors.New("backend: not found")
	ErrRejected    = errors.New("backend: request rejected")
	ErrUnavailable = errors.New("backend: unavailable")
)

// StatusError is a non-2xx answer of the backend. Detail carries the message
// the backend put into its error body.
type StatusError struct {
	Op     string
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Detail)
}

// Unwrap maps the status to a sentinel kind.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusBadRequest && e.Status < http.StatusInternalServerError:
		return ErrRejected
	default:
		return ErrUnavailable
	}
}
