package app

import (
	"errors"
	"fmt"

	"github.com/mkret/measureboard/internal/adapters/api"
)

// ErrReadOnly rejects mutations from an unprivileged session. No state
// changes and nothing reaches the network.
var ErrReadOnly = errors.New("read-only session")

// ErrValidation is the kind behind every local validation failure:
// non-numeric input, out-of-range value, min above max, empty name.
// Validation failures never reach the network.
var ErrValidation = errors.New("validation failed")

// FetchError wraps a failed list retrieval. The affected cache section
// keeps its last-known value.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch failed: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// MutationError wraps a server-rejected create/update/delete. Local
// state is exactly as before the call.
type MutationError struct {
	Kind string
	Err  error
}

func (e *MutationError) Error() string { return e.Kind + " failed: " + e.Err.Error() }
func (e *MutationError) Unwrap() error { return e.Err }

// Message renders err for the operator: the server-provided detail when
// one exists, otherwise the given fallback.
func Message(err error, fallback string) string {
	if detail := api.Detail(err); detail != "" {
		return detail
	}
	return fallback
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
