package binding

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/sqsbreaker"
)

func disableInput(id string) *lambda.UpdateEventSourceMappingInput {
	return &lambda.UpdateEventSourceMappingInput{UUID: aws.String(id), Enabled: aws.Bool(false)}
}

func enableInput(id string) *lambda.UpdateEventSourceMappingInput {
	return &lambda.UpdateEventSourceMappingInput{UUID: aws.String(id), Enabled: aws.Bool(true)}
}

func TestController_Disable(t *testing.T) {
	const functionName = "payment-processing"

	t.Run("discovers then disables", func(t *testing.T) {
		client := new(MockControlPlane)
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-42")), nil).Once()
		client.On("UpdateEventSourceMapping", mock.Anything, disableInput("uuid-42")).
			Return(&lambda.UpdateEventSourceMappingOutput{}, nil).Once()

		c := NewController(client, nil)
		require.NoError(t, c.Disable(context.Background(), functionName))

		id, ok := c.CachedBindingID(functionName)
		assert.True(t, ok)
		assert.Equal(t, "uuid-42", id)
		client.AssertExpectations(t)
	})

	t.Run("second disable hits the cache and stays idempotent", func(t *testing.T) {
		client := new(MockControlPlane)
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-42")), nil).Once()
		client.On("UpdateEventSourceMapping", mock.Anything, disableInput("uuid-42")).
			Return(&lambda.UpdateEventSourceMappingOutput{}, nil).Twice()

		c := NewController(client, nil)
		require.NoError(t, c.Disable(context.Background(), functionName))
		require.NoError(t, c.Disable(context.Background(), functionName))

		// Discovery ran exactly once; the platform saw the same idempotent call twice.
		client.AssertNumberOfCalls(t, "ListEventSourceMappings", 1)
		client.AssertExpectations(t)
	})

	t.Run("stale cached id is invalidated and rediscovered", func(t *testing.T) {
		client := new(MockControlPlane)
		// Prime the cache with the old id.
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-old")), nil).Once()
		client.On("UpdateEventSourceMapping", mock.Anything, disableInput("uuid-old")).
			Return(&lambda.UpdateEventSourceMappingOutput{}, nil).Once()

		c := NewController(client, nil)
		require.NoError(t, c.Disable(context.Background(), functionName))

		// The function was redeployed: the old id is gone, a new one exists.
		client.On("UpdateEventSourceMapping", mock.Anything, disableInput("uuid-old")).
			Return(nil, &lambdatypes.ResourceNotFoundException{Message: aws.String("mapping gone")}).Once()
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-new")), nil).Once()
		client.On("UpdateEventSourceMapping", mock.Anything, disableInput("uuid-new")).
			Return(&lambda.UpdateEventSourceMappingOutput{}, nil).Once()

		require.NoError(t, c.Disable(context.Background(), functionName))

		id, _ := c.CachedBindingID(functionName)
		assert.Equal(t, "uuid-new", id)
		client.AssertExpectations(t)
	})

	t.Run("platform failure surfaces without internal retry", func(t *testing.T) {
		client := new(MockControlPlane)
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-42")), nil).Once()
		client.On("UpdateEventSourceMapping", mock.Anything, disableInput("uuid-42")).
			Return(nil, errors.New("internal error")).Once()

		c := NewController(client, nil)
		err := c.Disable(context.Background(), functionName)

		var perr *PlatformError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "uuid-42", perr.BindingID)
		client.AssertNumberOfCalls(t, "UpdateEventSourceMapping", 1)
	})

	t.Run("no binding is surfaced as ErrNoBinding", func(t *testing.T) {
		client := new(MockControlPlane)
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(streamMapping("stream-1")), nil).Once()

		c := NewController(client, nil)
		err := c.Disable(context.Background(), functionName)
		assert.ErrorIs(t, err, ErrNoBinding)
		client.AssertNotCalled(t, "UpdateEventSourceMapping")
	})
}

func TestController_Enable(t *testing.T) {
	const functionName = "payment-processing"

	t.Run("enable on an already-enabled binding is a no-op success", func(t *testing.T) {
		client := new(MockControlPlane)
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-42")), nil).Once()
		// The platform accepts Enabled=true regardless of current state.
		client.On("UpdateEventSourceMapping", mock.Anything, enableInput("uuid-42")).
			Return(&lambda.UpdateEventSourceMappingOutput{}, nil).Twice()

		c := NewController(client, nil)
		require.NoError(t, c.Enable(context.Background(), functionName))
		require.NoError(t, c.Enable(context.Background(), functionName))
	})
}

func TestController_Status(t *testing.T) {
	const functionName = "payment-processing"

	tests := []struct {
		name          string
		platformState string
		want          sqsbreaker.BindingState
	}{
		{"enabled", "Enabled", sqsbreaker.BindingEnabled},
		{"disabled", "Disabled", sqsbreaker.BindingDisabled},
		{"transitional maps to unknown", "Disabling", sqsbreaker.BindingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockControlPlane)
			client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
				Return(mappingsOutput(queueMapping("uuid-42")), nil).Once()
			client.On("GetEventSourceMapping", mock.Anything, &lambda.GetEventSourceMappingInput{
				UUID: aws.String("uuid-42"),
			}).Return(&lambda.GetEventSourceMappingOutput{State: aws.String(tt.platformState)}, nil).Once()

			status, err := NewController(client, nil).Status(context.Background(), functionName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status.State)
			assert.Equal(t, "uuid-42", status.BindingID)
		})
	}

	t.Run("bypasses the cache for ground truth", func(t *testing.T) {
		client := new(MockControlPlane)
		client.On("ListEventSourceMappings", mock.Anything, mock.Anything).
			Return(mappingsOutput(queueMapping("uuid-42")), nil).Twice()
		client.On("UpdateEventSourceMapping", mock.Anything, mock.Anything).
			Return(&lambda.UpdateEventSourceMappingOutput{}, nil).Once()
		client.On("GetEventSourceMapping", mock.Anything, mock.Anything).
			Return(&lambda.GetEventSourceMappingOutput{State: aws.String("Disabled")}, nil).Once()

		c := NewController(client, nil)
		require.NoError(t, c.Disable(context.Background(), functionName))

		// Status must rediscover even though the cache is primed.
		status, err := c.Status(context.Background(), functionName)
		require.NoError(t, err)
		assert.Equal(t, sqsbreaker.BindingDisabled, status.State)
		client.AssertNumberOfCalls(t, "ListEventSourceMappings", 2)
	})
}
