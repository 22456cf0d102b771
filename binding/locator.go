package binding

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/sethvargo/go-retry"
)

// Discovery retry bounds. Only DiscoveryError is retried; ErrNoBinding is a
// definitive answer and returns immediately.
const (
	discoveryMaxRetries  = 2 // 3 attempts total
	discoveryBackoffBase = 200 * time.Millisecond
)

// ControlPlaneClient defines the platform control-plane operations needed to
// locate and flip consumption bindings. Narrowed from the Lambda client so
// tests can mock it.
type ControlPlaneClient interface {
	ListEventSourceMappings(ctx context.Context, params *lambda.ListEventSourceMappingsInput, optFns ...func(*lambda.Options)) (*lambda.ListEventSourceMappingsOutput, error)
	UpdateEventSourceMapping(ctx context.Context, params *lambda.UpdateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.UpdateEventSourceMappingOutput, error)
	GetEventSourceMapping(ctx context.Context, params *lambda.GetEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.GetEventSourceMappingOutput, error)
}

// Locator discovers the live queue binding of a managed function with no
// persisted configuration. Binding ids drift across redeploys, so they are
// treated as derived values: discovered on demand, never written down.
type Locator struct {
	client ControlPlaneClient
	log    *slog.Logger
}

// NewLocator creates a Locator on top of a control-plane client.
func NewLocator(client ControlPlaneClient, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{client: client, log: log}
}

// Discover returns the binding id of the function's queue-sourced consumption
// binding. ErrNoBinding when the function has none; *DiscoveryError when the
// control plane could not be queried.
func (l *Locator) Discover(ctx context.Context, functionName string) (string, error) {
	out, err := l.client.ListEventSourceMappings(ctx, &lambda.ListEventSourceMappingsInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil {
		return "", &DiscoveryError{FunctionName: functionName, Cause: err}
	}

	for _, mapping := range out.EventSourceMappings {
		arn := aws.ToString(mapping.EventSourceArn)
		if !isQueueSource(arn) {
			continue
		}
		id := aws.ToString(mapping.UUID)
		l.log.Debug("discovered queue binding",
			"function", functionName, "binding_id", id, "source", arn)
		return id, nil
	}

	l.log.Warn("no queue binding for function", "function", functionName)
	return "", ErrNoBinding
}

// DiscoverWithRetry wraps Discover with bounded exponential backoff, retrying
// only on *DiscoveryError.
func (l *Locator) DiscoverWithRetry(ctx context.Context, functionName string) (string, error) {
	var id string
	backoff := retry.WithMaxRetries(discoveryMaxRetries, retry.NewExponential(discoveryBackoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var derr error
		id, derr = l.Discover(ctx, functionName)
		var disc *DiscoveryError
		if errors.As(derr, &disc) {
			return retry.RetryableError(derr)
		}
		return derr
	})
	return id, err
}

// isQueueSource reports whether the binding source ARN is an ordered work
// queue (as opposed to a stream or broker source on the same function).
func isQueueSource(arn string) bool {
	return strings.Contains(strings.ToLower(arn), ":sqs")
}
