package sqsbreaker

import (
	"context"
	"errors"
	"net"
	"strings"
)

// FaultKind classifies a processing failure by responsibility.
type FaultKind int

const (
	// FaultNone indicates a successful outcome.
	FaultNone FaultKind = iota
	// FaultClient indicates a caller-fault (bad input, 4xx). Consumption continues.
	FaultClient
	// FaultServer indicates a callee-fault (dependency-side, 5xx, transport).
	// Consumption of the queue is suspended.
	FaultServer
	// FaultUnclassified indicates no recognizable origin signal. Consumption
	// continues by default; the event is flagged loudly for review.
	FaultUnclassified
)

// String returns the event-record spelling of the fault kind.
func (k FaultKind) String() string {
	switch k {
	case FaultNone:
		return "none"
	case FaultClient:
		return "client_fault"
	case FaultServer:
		return "server_fault"
	default:
		return "unclassified"
	}
}

// Classification is the result of classifying a processing outcome.
type Classification struct {
	Kind       FaultKind
	StatusHint int
	Message    string
}

// Classify maps a processing outcome to a fault classification.
//
// An explicit status code always wins over a generic error: 400-499 is a
// client fault, 500-599 a server fault. Without a status code, transport-level
// unavailability or a timeout reaching the dependency is a server fault, an
// explicit invalid-input marker is a client fault, and anything else is
// unclassified. Total and side-effect free: never panics, safe on zero values.
func Classify(o Outcome) Classification {
	if o.Success() {
		return Classification{Kind: FaultNone}
	}

	msg := ""
	if o.Err != nil {
		msg = o.Err.Error()
	}

	if o.StatusCode >= 400 && o.StatusCode < 500 {
		return Classification{Kind: FaultClient, StatusHint: o.StatusCode, Message: msg}
	}
	if o.StatusCode >= 500 && o.StatusCode < 600 {
		return Classification{Kind: FaultServer, StatusHint: o.StatusCode, Message: msg}
	}
	if o.Err == nil {
		// Status outside both ranges with no error carries no usable signal.
		return Classification{Kind: FaultUnclassified, StatusHint: o.StatusCode, Message: msg}
	}

	if errors.Is(o.Err, ErrInvalidInput) {
		return Classification{Kind: FaultClient, Message: msg}
	}
	if isDependencyFailure(o.Err) {
		return Classification{Kind: FaultServer, Message: msg}
	}

	return Classification{Kind: FaultUnclassified, Message: msg}
}

// isDependencyFailure reports whether the error indicates the dependency side
// failed or was unreachable: explicit marker, timeouts, or network errors.
func isDependencyFailure(err error) bool {
	if errors.Is(err, ErrDependencyUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Last resort for opaque client libraries that only surface strings.
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unavailable") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused")
}
