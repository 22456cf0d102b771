package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/hatsunemiku3939/sqsbreaker"
)

// Simulated external services, keyed off markers in the customer id so demo
// traffic can exercise every classification path without real dependencies:
// ERROR400 forces a caller fault, ERROR500 a dependency fault.
const (
	markerClientFault = "ERROR400"
	markerServerFault = "ERROR500"
)

// SimulatedBankVerifier is a stand-in account validation service.
type SimulatedBankVerifier struct{}

// VerifyAccount implements BankVerifier.
func (SimulatedBankVerifier) VerifyAccount(_ context.Context, req BankAccountRequest) (int, error) {
	id := strings.ToUpper(req.CustomerID)
	switch {
	case strings.Contains(id, markerClientFault):
		return 400, fmt.Errorf("%w: invalid account number format", sqsbreaker.ErrInvalidInput)
	case strings.Contains(id, markerServerFault):
		return 503, fmt.Errorf("%w: bank validation service temporarily unavailable", sqsbreaker.ErrDependencyUnavailable)
	}
	return 200, nil
}

// SimulatedPaymentGateway is a stand-in payment gateway.
type SimulatedPaymentGateway struct{}

// SubmitPayment implements PaymentGateway.
func (SimulatedPaymentGateway) SubmitPayment(_ context.Context, req PaymentRequest) (int, error) {
	id := strings.ToUpper(req.CustomerID)
	switch {
	case strings.Contains(id, markerClientFault):
		return 400, fmt.Errorf("%w: insufficient funds in account", sqsbreaker.ErrInvalidInput)
	case strings.Contains(id, markerServerFault):
		return 503, fmt.Errorf("%w: payment gateway temporarily unavailable", sqsbreaker.ErrDependencyUnavailable)
	case req.Amount <= 0:
		return 400, fmt.Errorf("%w: amount must be positive", sqsbreaker.ErrInvalidInput)
	}
	return 200, nil
}
