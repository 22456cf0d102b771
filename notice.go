package sqsbreaker

import "time"

// SuspensionNotice is the outbound record emitted when a worker disables its
// own consumption after a server fault. Published to the operations topic so
// operators and automation can decide when to issue the recovery directive.
type SuspensionNotice struct {
	FunctionName string    `json:"functionName"`
	BindingID    string    `json:"bindingId"`
	MessageID    string    `json:"messageId"`
	CustomerID   string    `json:"customerId"`
	Reason       string    `json:"reason"`
	IssuedAt     time.Time `json:"issuedAt"`
}
