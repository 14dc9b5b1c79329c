package api

import (
	"errors"
	"fmt"
)

// CallError is a non-2xx response from the backend. Detail carries the
// server-provided message when the body had one.
type CallError struct {
	Endpoint string
	Status   int
	Detail   string
}

func (e *CallError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed (%d): %s", e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed (%d)", e.Endpoint, e.Status)
}

// Detail extracts the server-provided message from err, or "" when err
// carries none. Used to surface backend validation text to the operator.
func Detail(err error) string {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Detail
	}
	return ""
}
