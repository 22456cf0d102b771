package sqsbreaker

import (
	"encoding/json"
)

// Transaction types routed by the system. Each type has its own FIFO queue
// and its own worker function; routing is an exact match on this value.
const (
	TxTypeBankAccountSetup = "bank_account_setup"
	TxTypePayment          = "payment"
)

// TransactionEnvelope is the outer layer of every transaction message.
// It carries the routing information and the actual transaction payload.
type TransactionEnvelope struct {
	SchemaVersion   string              `json:"schemaVersion"`
	TransactionType string              `json:"transactionType"`
	Message         json.RawMessage     `json:"message"`
	Metadata        TransactionMetadata `json:"metadata"`
}

// TransactionMetadata holds common metadata found in every transaction.
// CustomerID doubles as the ordering group key: the substrate guarantees
// at most one in-flight message per customer, in publish order.
type TransactionMetadata struct {
	MessageID  string `json:"messageId"`
	CustomerID string `json:"customerId"`
	Timestamp  string `json:"timestamp"`
	Source     string `json:"source"`
}

// Outcome is the result of handing a transaction to the external
// validation/gateway service. StatusCode is the explicit origin signal when
// the dependency returned one; zero means no status was observed.
type Outcome struct {
	StatusCode int
	Err        error
}

// Success reports whether the outcome carries neither an error nor an
// error-range status code.
func (o Outcome) Success() bool {
	return o.Err == nil && (o.StatusCode == 0 || o.StatusCode < 400)
}

// BindingState is the consumption state of a worker's queue binding as
// reported by the platform control plane.
type BindingState string

const (
	BindingEnabled  BindingState = "Enabled"
	BindingDisabled BindingState = "Disabled"
	// BindingUnknown covers transitional platform states (enabling, disabling,
	// updating) and the time before the first successful discovery.
	BindingUnknown BindingState = "Unknown"
)
