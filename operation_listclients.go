package awaserver

import "time"

// ListClientsOperation asks the daemon for the set of currently registered
// clients and, for each, its registered entities (spec.md §4.7). It takes
// no inputs.
type ListClientsOperation struct {
	core *operationCore
}

// NewListClientsOperation constructs a ListClients operation on session.
func NewListClientsOperation(session *Session) *ListClientsOperation {
	core := newOperationCore(session, subtypeListClients)
	// ListClients addresses no caller-supplied path, but still needs a
	// non-zero path count to pass the "Perform with zero paths" check:
	// the request itself is the single "path" of interest.
	core.pathCount = 1
	return &ListClientsOperation{core: core}
}

// Perform sends the ListClients request and blocks for up to timeout.
func (op *ListClientsOperation) Perform(timeout time.Duration) error {
	return op.core.perform(timeout)
}

// Response returns the parsed ListClientsResponse, if Perform completed.
func (op *ListClientsOperation) Response() (*ListClientsResponse, bool) {
	r, ok := op.core.getResponse()
	if !ok {
		return nil, false
	}
	return &ListClientsResponse{Response: r}, true
}

// Free releases the operation.
func (op *ListClientsOperation) Free() { op.core.free() }

// ListClientsResponse lists the registered clients and, per client, the
// object-instance paths they have registered (spec.md's
// "registered-entity iterator", grounded on original_source's
// registered_entity_iterator.c: bare object nodes with no instances are
// skipped).
type ListClientsResponse struct {
	*Response
}

// RegisteredEntities returns the registered entity paths for clientID, in
// path order, or nil if clientID is absent from the response.
func (r *ListClientsResponse) RegisteredEntities(clientID string) []Path {
	if !r.valid() {
		return nil
	}
	tree, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	var paths []Path
	for _, leaf := range tree.Leaves() {
		if leaf.Kind() == NodeKindObject {
			continue
		}
		paths = append(paths, leaf.Path())
	}
	return paths
}
