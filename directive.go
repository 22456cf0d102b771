package sqsbreaker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DirectiveAction is the administrative action carried by a control message.
type DirectiveAction string

const (
	ActionEnable  DirectiveAction = "enable"
	ActionDisable DirectiveAction = "disable"
)

// Directive is an administrative control message broadcast to all listener
// instances. Scope limits the target functions; empty scope means all managed
// functions. Application is idempotent, so at-least-once delivery is safe.
type Directive struct {
	Action   DirectiveAction `json:"action"`
	Scope    []string        `json:"scope,omitempty"`
	Reason   string          `json:"reason"`
	Operator string          `json:"operator,omitempty"`
	IssuedAt time.Time       `json:"issuedAt"`
}

// Targets reports whether the directive applies to the named function.
func (d Directive) Targets(functionName string) bool {
	if len(d.Scope) == 0 {
		return true
	}
	for _, name := range d.Scope {
		if name == functionName {
			return true
		}
	}
	return false
}

// snsNotification is the wrapper SNS puts around a broadcast payload when the
// control topic delivers into a subscribed queue without raw delivery.
type snsNotification struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// ParseDirective decodes a control message body. It accepts both a bare
// directive and an SNS notification wrapper around one, since listener queues
// may or may not have raw message delivery enabled.
func ParseDirective(body []byte) (Directive, error) {
	var note snsNotification
	if err := json.Unmarshal(body, &note); err == nil && note.Type == "Notification" {
		body = []byte(note.Message)
	}

	var d Directive
	if err := json.Unmarshal(body, &d); err != nil {
		return Directive{}, fmt.Errorf("failed to parse directive: %w", err)
	}

	d.Action = DirectiveAction(strings.ToLower(string(d.Action)))
	switch d.Action {
	case ActionEnable, ActionDisable:
	case "start":
		d.Action = ActionEnable
	case "stop":
		d.Action = ActionDisable
	default:
		return Directive{}, fmt.Errorf("%w: %q", ErrUnknownAction, d.Action)
	}
	return d, nil
}
