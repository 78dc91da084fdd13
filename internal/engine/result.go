package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/deltahash-cli/internal/domain"
)

// Outcome tags the result of a call; callers switch on it instead of
// inspecting errors.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetry
	OutcomeProxyChanged
	OutcomeAuthExpired
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeProxyChanged:
		return "proxy_changed"
	case OutcomeAuthExpired:
		return "auth_expired"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome          Outcome
	Status           int
	Body             []byte
	AlreadyConnected bool
	Kind             domain.FailureKind
	Message          string
	Attempts         int
	Cause            error

	wait time.Duration
}

func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Err converts a non-success outcome to an error wrapping the matching domain
// sentinel.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeAuthExpired:
		return fmt.Errorf("%w (status %d): %s", domain.ErrAuthExpired, r.Status, r.Message)
	case OutcomeProxyChanged:
		return fmt.Errorf("%w: %s", domain.ErrProxyChanged, r.Message)
	}

	if errors.Is(r.Cause, context.Canceled) || errors.Is(r.Cause, context.DeadlineExceeded) {
		return r.Cause
	}

	return fmt.Errorf("%w after %d attempt(s): %w", domain.ErrAttemptsExhausted, r.Attempts, r.cause())
}

func (r Result) cause() error {
	if r.Cause != nil {
		return r.Cause
	}
	return &StatusError{Status: r.Status, Message: r.Message}
}

// StatusError is the cause of a failed attempt that got an HTTP response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}
