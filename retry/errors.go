package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrExhausted marks an operation that kept failing retryably until its time
// budget ran out. Callers distinguish it from a hard rejection with
// errors.Is; the last transport error is preserved as context only.
var ErrExhausted = errors.New("retry budget exhausted")

// ExhaustedError reports how an operation's retry budget was consumed.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts in %s: %v",
		e.Attempts, e.Elapsed, e.Last)
}

// Unwrap reports the exhaustion sentinel, never the raw transport error, so
// the failure class a caller observes is exhaustion and nothing else.
func (e *ExhaustedError) Unwrap() error {
	return ErrExhausted
}

// Retryable reports whether err belongs to the transient failure class:
// transport unavailable, deadline exceeded mid-call, resource exhausted, or
// aborted. Everything else fails immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}
