package binding

import (
	"errors"
	"fmt"
)

// ErrNoBinding means the function has no queue-sourced consumption binding.
// Not a failure: the caller logs it and moves on.
var ErrNoBinding = errors.New("no queue binding found")

// DiscoveryError wraps a control-plane failure while listing bindings.
// Callers may retry with bounded backoff; ErrNoBinding is never wrapped in it.
type DiscoveryError struct {
	FunctionName string
	Cause        error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("binding discovery failed for %s: %v", e.FunctionName, e.Cause)
}

func (e *DiscoveryError) Unwrap() error { return e.Cause }

// PlatformError wraps a control-plane failure while mutating or reading a
// binding. Never auto-retried; surfaced for operator follow-up.
type PlatformError struct {
	Op        string
	BindingID string
	Cause     error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform %s failed for binding %s: %v", e.Op, e.BindingID, e.Cause)
}

func (e *PlatformError) Unwrap() error { return e.Cause }
