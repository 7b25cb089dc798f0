package awaserver

import "time"

// DeleteOperation deletes object instances on one or more clients. The
// daemon cannot delete bare resources or objects; such paths yield
// MethodNotAllowed (spec.md §4.7).
type DeleteOperation struct {
	core *operationCore
}

// NewDeleteOperation constructs a Delete operation on session.
func NewDeleteOperation(session *Session) *DeleteOperation {
	return &DeleteOperation{core: newOperationCore(session, subtypeDelete)}
}

// AddPath stages path (expected to be an object-instance) on clientID for
// deletion. Adding both an instance path and a descendant resource path
// is allowed: per invariant 4, the instance delete is not shadowed by the
// more specific resource path.
func (op *DeleteOperation) AddPath(clientID string, path Path) error {
	_, err := op.core.addPath(clientID, path)
	return err
}

// Perform sends the Delete request and blocks for up to timeout.
func (op *DeleteOperation) Perform(timeout time.Duration) error {
	return op.core.perform(timeout)
}

// Response returns the per-path Delete results, if Perform completed.
func (op *DeleteOperation) Response() (*Response, bool) {
	return op.core.getResponse()
}

// Free releases the operation.
func (op *DeleteOperation) Free() { op.core.free() }
