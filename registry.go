package sqsbreaker

import "fmt"

// ManagedFunction describes one worker function under control. Entries come
// from the static startup registry; the binding id is never part of it, it is
// discovered at runtime and cached in process memory only.
type ManagedFunction struct {
	Name            string
	TransactionType string
	QueueURL        string
}

// BindingStatus is the control-plane ground truth for one managed function.
type BindingStatus struct {
	FunctionName string
	BindingID    string
	State        BindingState
}

// Registry is the static set of managed functions, loaded at startup.
// Membership changes require a restart; that is a deployment-time event.
type Registry struct {
	byName  map[string]ManagedFunction
	ordered []string
}

// NewRegistry builds a registry, rejecting duplicate function names.
func NewRegistry(functions ...ManagedFunction) (*Registry, error) {
	r := &Registry{byName: make(map[string]ManagedFunction, len(functions))}
	for _, fn := range functions {
		if fn.Name == "" {
			return nil, fmt.Errorf("managed function with empty name")
		}
		if _, dup := r.byName[fn.Name]; dup {
			return nil, fmt.Errorf("duplicate managed function %q", fn.Name)
		}
		r.byName[fn.Name] = fn
		r.ordered = append(r.ordered, fn.Name)
	}
	return r, nil
}

// Lookup returns the managed function by name.
func (r *Registry) Lookup(name string) (ManagedFunction, error) {
	fn, ok := r.byName[name]
	if !ok {
		return ManagedFunction{}, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return fn, nil
}

// All returns the managed functions in registration order.
func (r *Registry) All() []ManagedFunction {
	out := make([]ManagedFunction, 0, len(r.ordered))
	for _, name := range r.ordered {
		out = append(out, r.byName[name])
	}
	return out
}

// Routes derives the declared route table from the registry.
func (r *Registry) Routes() (*RouteTable, error) {
	routes := make([]Route, 0, len(r.ordered))
	for _, fn := range r.All() {
		routes = append(routes, Route{TransactionType: fn.TransactionType, QueueURL: fn.QueueURL})
	}
	return NewRouteTable(routes...)
}
