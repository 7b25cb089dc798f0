package awaserver

import "time"

// DiscoverOperation asks the daemon which write-attributes are currently
// set on one or more paths (spec.md §4.7).
type DiscoverOperation struct {
	core *operationCore
}

// NewDiscoverOperation constructs a Discover operation on session.
func NewDiscoverOperation(session *Session) *DiscoverOperation {
	return &DiscoverOperation{core: newOperationCore(session, subtypeDiscover)}
}

// AddPath stages path on clientID for discovery.
func (op *DiscoverOperation) AddPath(clientID string, path Path) error {
	_, err := op.core.addPath(clientID, path)
	return err
}

// Perform sends the Discover request and blocks for up to timeout.
func (op *DiscoverOperation) Perform(timeout time.Duration) error {
	return op.core.perform(timeout)
}

// Response returns the parsed DiscoverResponse, if Perform completed.
func (op *DiscoverOperation) Response() (*DiscoverResponse, bool) {
	r, ok := op.core.getResponse()
	if !ok {
		return nil, false
	}
	return &DiscoverResponse{Response: r}, true
}

// Free releases the operation.
func (op *DiscoverOperation) Free() { op.core.free() }

// DiscoverResponse exposes the per-path attribute set the daemon reported.
type DiscoverResponse struct {
	*Response
}

// Attribute returns the numeric value set for link at (clientID, path).
func (r *DiscoverResponse) Attribute(clientID string, path Path, link AttributeLink) (float64, bool) {
	node, ok := r.node(clientID, path)
	if !ok {
		return 0, false
	}
	return node.Attribute(link)
}

// Attributes returns the full attribute set reported for (clientID, path).
func (r *DiscoverResponse) Attributes(clientID string, path Path) map[AttributeLink]float64 {
	node, ok := r.node(clientID, path)
	if !ok {
		return nil
	}
	return node.Attributes()
}
