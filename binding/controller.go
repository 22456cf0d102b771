package binding

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/hatsunemiku3939/sqsbreaker"
)

// Controller flips and inspects consumption bindings for managed functions.
// Binding ids are resolved cache-then-discover; the cache lives only in
// process memory and is invalidated when the platform reports the cached id
// unknown. Enable and disable are idempotent, so concurrent instances hitting
// the same server fault need no coordination.
type Controller struct {
	client  ControlPlaneClient
	locator *Locator
	log     *slog.Logger

	mu    sync.Mutex
	cache map[string]string // function name -> binding id
}

// NewController creates a Controller sharing the locator's control-plane client.
func NewController(client ControlPlaneClient, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		client:  client,
		locator: NewLocator(client, log),
		log:     log,
		cache:   make(map[string]string),
	}
}

// Disable turns off consumption for the function's queue binding.
// ErrNoBinding is non-fatal for the caller; *PlatformError is surfaced and
// never auto-retried.
func (c *Controller) Disable(ctx context.Context, functionName string) error {
	return c.setEnabled(ctx, functionName, false)
}

// Enable turns consumption back on. A no-op success when already enabled.
func (c *Controller) Enable(ctx context.Context, functionName string) error {
	return c.setEnabled(ctx, functionName, true)
}

func (c *Controller) setEnabled(ctx context.Context, functionName string, enabled bool) error {
	id, err := c.resolve(ctx, functionName)
	if err != nil {
		return err
	}

	_, err = c.client.UpdateEventSourceMapping(ctx, &lambda.UpdateEventSourceMappingInput{
		UUID:    aws.String(id),
		Enabled: aws.Bool(enabled),
	})
	if err != nil {
		if isBindingGone(err) {
			// Cached id went stale across a redeploy. Invalidate and retry the
			// resolution once; a second miss is definitive.
			c.invalidate(functionName)
			id, rerr := c.resolve(ctx, functionName)
			if rerr != nil {
				return rerr
			}
			_, uerr := c.client.UpdateEventSourceMapping(ctx, &lambda.UpdateEventSourceMappingInput{
				UUID:    aws.String(id),
				Enabled: aws.Bool(enabled),
			})
			if uerr != nil {
				return &PlatformError{Op: "update", BindingID: id, Cause: uerr}
			}
		} else {
			return &PlatformError{Op: "update", BindingID: id, Cause: err}
		}
	}

	if enabled {
		c.log.Info("enabled queue binding", "function", functionName, "binding_id", id)
	} else {
		c.log.Warn("disabled queue binding", "function", functionName, "binding_id", id)
	}
	return nil
}

// Status reads the binding state directly from the platform, bypassing the
// local cache so the answer is ground truth.
func (c *Controller) Status(ctx context.Context, functionName string) (sqsbreaker.BindingStatus, error) {
	id, err := c.locator.DiscoverWithRetry(ctx, functionName)
	if err != nil {
		return sqsbreaker.BindingStatus{FunctionName: functionName, State: sqsbreaker.BindingUnknown}, err
	}
	c.store(functionName, id)

	out, err := c.client.GetEventSourceMapping(ctx, &lambda.GetEventSourceMappingInput{
		UUID: aws.String(id),
	})
	if err != nil {
		return sqsbreaker.BindingStatus{FunctionName: functionName, BindingID: id, State: sqsbreaker.BindingUnknown},
			&PlatformError{Op: "get", BindingID: id, Cause: err}
	}

	return sqsbreaker.BindingStatus{
		FunctionName: functionName,
		BindingID:    id,
		State:        stateFromPlatform(aws.ToString(out.State)),
	}, nil
}

// CachedBindingID returns the last resolved binding id for a function, if
// any. Used for event records; never a substitute for Status ground truth.
func (c *Controller) CachedBindingID(functionName string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.cache[functionName]
	return id, ok
}

// resolve returns the binding id for a function, consulting the cache first.
func (c *Controller) resolve(ctx context.Context, functionName string) (string, error) {
	c.mu.Lock()
	id, ok := c.cache[functionName]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	id, err := c.locator.DiscoverWithRetry(ctx, functionName)
	if err != nil {
		return "", err
	}
	c.store(functionName, id)
	return id, nil
}

func (c *Controller) store(functionName, id string) {
	c.mu.Lock()
	c.cache[functionName] = id
	c.mu.Unlock()
}

func (c *Controller) invalidate(functionName string) {
	c.mu.Lock()
	delete(c.cache, functionName)
	c.mu.Unlock()
}

// stateFromPlatform maps platform state strings onto the binding states the
// control loop understands. Transitional states report Unknown rather than
// guessing a direction.
func stateFromPlatform(state string) sqsbreaker.BindingState {
	switch state {
	case "Enabled":
		return sqsbreaker.BindingEnabled
	case "Disabled":
		return sqsbreaker.BindingDisabled
	default:
		return sqsbreaker.BindingUnknown
	}
}

func isBindingGone(err error) bool {
	var notFound *lambdatypes.ResourceNotFoundException
	return errors.As(err, &notFound)
}
