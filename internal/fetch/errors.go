package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrAttemptsExhausted is matched by every AttemptsError.
	ErrAttemptsExhausted = errors.New("fetch attempts exhausted")
	// ErrDecode is returned when a body is not valid in the declared encoding.
	ErrDecode = errors.New("body does not decode")
)

// AttemptsError is returned once the attempt budget for a URL is spent.
type AttemptsError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("giving up on %s after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

// Unwrap returns the failure of the final attempt.
func (e *AttemptsError) Unwrap() error { return e.Last }

// Is lets errors.Is match ErrAttemptsExhausted.
func (e *AttemptsError) Is(target error) bool { return target == ErrAttemptsExhausted }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}
