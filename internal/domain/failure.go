package domain

import (
	"context"
	"errors"
)

// FailureKind classifies one failed call attempt.
type FailureKind string

const (
	FailureAuthExpired    FailureKind = "auth_expired"
	FailureRateLimited    FailureKind = "rate_limited"
	FailureNetwork        FailureKind = "network_error"
	FailureGeneric        FailureKind = "generic_error"
	FailureConflictAsDone FailureKind = "server_conflict_as_success"
)

// Signal is what a finished session cycle tells its supervisor.
type Signal int

const (
	SignalNone Signal = iota
	SignalProxyChanged
	SignalAuthExpired
	SignalFailed
	SignalStopped
)

func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalProxyChanged:
		return "proxy_changed"
	case SignalAuthExpired:
		return "auth_expired"
	case SignalFailed:
		return "failed"
	case SignalStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func SignalOf(err error) Signal {
	switch {
	case err == nil:
		return SignalNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return SignalStopped
	case errors.Is(err, ErrAuthExpired):
		return SignalAuthExpired
	case errors.Is(err, ErrProxyChanged):
		return SignalProxyChanged
	default:
		return SignalFailed
	}
}

// IsTerminal reports errors that must leave the current cycle at once.
func IsTerminal(err error) bool {
	switch SignalOf(err) {
	case SignalAuthExpired, SignalProxyChanged, SignalStopped:
		return true
	default:
		return false
	}
}
