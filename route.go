package sqsbreaker

import "fmt"

// Route declares how one transaction type reaches its queue. The predicate is
// an exact match on the transaction type; execution is delegated to the
// substrate (an SNS filter policy on the transaction_type attribute), so the
// core only declares it.
type Route struct {
	TransactionType string
	QueueURL        string
}

// FilterPolicy renders the substrate filter policy for this route.
func (r Route) FilterPolicy() string {
	return fmt.Sprintf(`{"transaction_type": ["%s"]}`, r.TransactionType)
}

// RouteTable is the set of declared routes, one per transaction type.
type RouteTable struct {
	routes map[string]Route
}

// NewRouteTable builds a table from declared routes. Duplicate transaction
// types are rejected so a message can never match two queues.
func NewRouteTable(routes ...Route) (*RouteTable, error) {
	t := &RouteTable{routes: make(map[string]Route, len(routes))}
	for _, r := range routes {
		if _, dup := t.routes[r.TransactionType]; dup {
			return nil, fmt.Errorf("duplicate route for transaction type %q", r.TransactionType)
		}
		t.routes[r.TransactionType] = r
	}
	return t, nil
}

// Match returns the route whose predicate exactly matches the transaction
// type of the envelope.
func (t *RouteTable) Match(transactionType string) (Route, error) {
	r, ok := t.routes[transactionType]
	if !ok {
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownTransaction, transactionType)
	}
	return r, nil
}
