package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hatsunemiku3939/sqsbreaker"
)

// BankAccountRequest is the payload of a bank_account_setup transaction.
type BankAccountRequest struct {
	CustomerID    string `json:"customerId"`
	RoutingNumber string `json:"routingNumber"`
	AccountNumber string `json:"accountNumber"`
	AccountType   string `json:"accountType"`
}

// PaymentRequest is the payload of a payment transaction.
type PaymentRequest struct {
	CustomerID    string  `json:"customerId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	BillType      string  `json:"billType"`
	DueDate       string  `json:"dueDate"`
}

// BankVerifier is the external account validation service.
type BankVerifier interface {
	VerifyAccount(ctx context.Context, req BankAccountRequest) (status int, err error)
}

// PaymentGateway is the external payment gateway.
type PaymentGateway interface {
	SubmitPayment(ctx context.Context, req PaymentRequest) (status int, err error)
}

// NewBankAccountHandler builds the handler for bank_account_setup
// transactions: decode, then hand off to the verifier and report whatever
// origin signal it returned.
func NewBankAccountHandler(verifier BankVerifier) TransactionHandler {
	return func(ctx context.Context, payload []byte, _ sqsbreaker.TransactionMetadata) sqsbreaker.Outcome {
		var req BankAccountRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return sqsbreaker.Outcome{Err: fmt.Errorf("%w: %v", sqsbreaker.ErrInvalidInput, err)}
		}
		status, err := verifier.VerifyAccount(ctx, req)
		return sqsbreaker.Outcome{StatusCode: status, Err: err}
	}
}

// NewPaymentHandler builds the handler for payment transactions.
func NewPaymentHandler(gateway PaymentGateway) TransactionHandler {
	return func(ctx context.Context, payload []byte, _ sqsbreaker.TransactionMetadata) sqsbreaker.Outcome {
		var req PaymentRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return sqsbreaker.Outcome{Err: fmt.Errorf("%w: %v", sqsbreaker.ErrInvalidInput, err)}
		}
		status, err := gateway.SubmitPayment(ctx, req)
		return sqsbreaker.Outcome{StatusCode: status, Err: err}
	}
}
