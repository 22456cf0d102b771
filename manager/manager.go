// Package manager centralizes binding control for the whole registry of
// managed functions, so individual workers need no control-plane privileges.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hatsunemiku3939/sqsbreaker"
	"github.com/hatsunemiku3939/sqsbreaker/binding"
	"github.com/hatsunemiku3939/sqsbreaker/metrics"
)

// Controller is the binding control surface the manager drives.
type Controller interface {
	Enable(ctx context.Context, functionName string) error
	Disable(ctx context.Context, functionName string) error
	Status(ctx context.Context, functionName string) (sqsbreaker.BindingStatus, error)
}

// FunctionResult is the outcome of applying a directive to one function.
type FunctionResult struct {
	FunctionName string
	Err          error
}

// Result aggregates a directive application across the registry.
type Result struct {
	Action       sqsbreaker.DirectiveAction
	Functions    []FunctionResult
	SuccessCount int
	ErrorCount   int
}

// Summary is a point-in-time view of all managed functions' binding states.
type Summary struct {
	Timestamp time.Time
	Functions []sqsbreaker.BindingStatus
	Enabled   int
	Disabled  int
	Unknown   int
}

// Manager owns the static registry and performs all control-plane operations
// on the managed functions' behalf.
type Manager struct {
	registry   *sqsbreaker.Registry
	controller Controller
	log        *slog.Logger
}

// New creates a Manager over a registry and controller.
func New(registry *sqsbreaker.Registry, controller Controller, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{registry: registry, controller: controller, log: log}
}

// Apply runs the directive against every managed function it targets.
// Failures are isolated per function: one function's control error never
// blocks another's, and a binding-less function is a non-fatal skip.
func (m *Manager) Apply(ctx context.Context, d sqsbreaker.Directive) Result {
	result := Result{Action: d.Action}

	for _, fn := range m.registry.All() {
		if !d.Targets(fn.Name) {
			continue
		}

		var err error
		switch d.Action {
		case sqsbreaker.ActionEnable:
			err = m.controller.Enable(ctx, fn.Name)
		case sqsbreaker.ActionDisable:
			err = m.controller.Disable(ctx, fn.Name)
		}

		if errors.Is(err, binding.ErrNoBinding) {
			m.log.Warn("directive skipped, function has no binding", "function", fn.Name)
			err = nil
		}

		result.Functions = append(result.Functions, FunctionResult{FunctionName: fn.Name, Err: err})
		if err != nil {
			result.ErrorCount++
			m.log.Error("directive failed for function",
				"function", fn.Name, "action", d.Action, "error", err)
			metrics.DirectivesApplied.WithLabelValues(string(d.Action), "error").Inc()
			continue
		}

		result.SuccessCount++
		metrics.DirectivesApplied.WithLabelValues(string(d.Action), "success").Inc()
		if d.Action == sqsbreaker.ActionEnable {
			metrics.BindingEnabledState.WithLabelValues(fn.Name).Set(1)
		} else {
			metrics.BindingEnabledState.WithLabelValues(fn.Name).Set(0)
		}
	}

	m.log.Info("directive applied",
		"action", d.Action,
		"reason", d.Reason,
		"success", result.SuccessCount,
		"errors", result.ErrorCount,
	)
	return result
}

// ApplyDirective adapts Apply to the listener's contract. Per-function errors
// are already isolated and logged inside Apply, so the directive itself is
// considered handled; at-least-once redelivery would not improve on it.
func (m *Manager) ApplyDirective(ctx context.Context, d sqsbreaker.Directive) error {
	m.Apply(ctx, d)
	return nil
}

// Status reads platform ground truth for every managed function.
func (m *Manager) Status(ctx context.Context) Summary {
	summary := Summary{Timestamp: time.Now().UTC()}

	for _, fn := range m.registry.All() {
		status, err := m.controller.Status(ctx, fn.Name)
		if err != nil {
			m.log.Error("status read failed", "function", fn.Name, "error", err)
			status = sqsbreaker.BindingStatus{FunctionName: fn.Name, State: sqsbreaker.BindingUnknown}
		}

		summary.Functions = append(summary.Functions, status)
		switch status.State {
		case sqsbreaker.BindingEnabled:
			summary.Enabled++
			metrics.BindingEnabledState.WithLabelValues(fn.Name).Set(1)
		case sqsbreaker.BindingDisabled:
			summary.Disabled++
			metrics.BindingEnabledState.WithLabelValues(fn.Name).Set(0)
		default:
			summary.Unknown++
		}
	}
	return summary
}
