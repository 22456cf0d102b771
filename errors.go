package sqsbreaker

import "errors"

var (
	// ErrInvalidInput marks a failure caused by caller-supplied data. Handlers
	// wrap validation failures with it so classification does not depend on a
	// status code being present.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDependencyUnavailable marks a failure reaching or completing a call to
	// the external dependency. Classified as a server fault.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrInvalidEnvelope       = errors.New("invalid envelope")
	ErrFailedToParseEnvelope = errors.New("failed to parse envelope")
	ErrInvalidPayload        = errors.New("invalid transaction payload")
	ErrUnknownAction         = errors.New("unknown directive action")
	ErrUnknownFunction       = errors.New("function not in registry")
	ErrUnknownTransaction    = errors.New("no queue declared for transaction type")
)
