package sqsbreaker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// timeoutErr implements net.Error for transport-level timeout cases.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify_StatusRanges(t *testing.T) {
	t.Run("every 4xx status is a client fault", func(t *testing.T) {
		for status := 400; status < 500; status++ {
			cls := Classify(Outcome{StatusCode: status})
			assert.Equal(t, FaultClient, cls.Kind, "status %d", status)
			assert.Equal(t, status, cls.StatusHint)
		}
	})

	t.Run("every 5xx status is a server fault", func(t *testing.T) {
		for status := 500; status < 600; status++ {
			cls := Classify(Outcome{StatusCode: status})
			assert.Equal(t, FaultServer, cls.Kind, "status %d", status)
			assert.Equal(t, status, cls.StatusHint)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    FaultKind
	}{
		{"success with no status", Outcome{}, FaultNone},
		{"success with 200", Outcome{StatusCode: 200}, FaultNone},
		{"explicit invalid input marker", Outcome{Err: fmt.Errorf("%w: bad routing number", ErrInvalidInput)}, FaultClient},
		{"dependency unavailable marker", Outcome{Err: fmt.Errorf("%w: gateway down", ErrDependencyUnavailable)}, FaultServer},
		{"context deadline reaching dependency", Outcome{Err: context.DeadlineExceeded}, FaultServer},
		{"transport timeout", Outcome{Err: timeoutErr{}}, FaultServer},
		{"opaque unavailability string", Outcome{Err: errors.New("service temporarily unavailable")}, FaultServer},
		{"connection refused string", Outcome{Err: errors.New("dial tcp 10.0.0.1:443: connection refused")}, FaultServer},
		{"no recognizable signal", Outcome{Err: errors.New("something odd happened")}, FaultUnclassified},
		{"error-range status without error", Outcome{StatusCode: 404}, FaultClient},
		{"status outside both ranges", Outcome{StatusCode: 302, Err: errors.New("weird redirect")}, FaultUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.outcome).Kind)
		})
	}
}

func TestClassify_StatusOverridesGenericError(t *testing.T) {
	// Tie-break: an explicit status code wins over whatever the error says.
	cls := Classify(Outcome{StatusCode: 400, Err: errors.New("service temporarily unavailable")})
	assert.Equal(t, FaultClient, cls.Kind)

	cls = Classify(Outcome{StatusCode: 503, Err: fmt.Errorf("%w: odd", ErrInvalidInput)})
	assert.Equal(t, FaultServer, cls.Kind)
}

func TestClassify_IsTotal(t *testing.T) {
	// Must never panic, whatever it is fed.
	assert.NotPanics(t, func() {
		Classify(Outcome{})
		Classify(Outcome{StatusCode: -1})
		Classify(Outcome{StatusCode: 1000, Err: errors.New("x")})
		Classify(Outcome{Err: nil})
	})
}

func TestClassify_MessageCarriesErrorText(t *testing.T) {
	cls := Classify(Outcome{StatusCode: 502, Err: errors.New("bad gateway")})
	assert.Equal(t, "bad gateway", cls.Message)
}
