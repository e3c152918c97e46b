package encuestas

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the service reports 404 for an entry.
var ErrNotFound = errors.New("entrega not found")

// ValidationError is returned when the service rejects a submission with
// 400; Message carries the service's own description.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation rejected: %s", e.Message)
}

// StatusError is returned for any other non-success HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("encuestas service returned status %d: %s", e.Code, e.Body)
}
