package awaserver

import "time"

// ExecuteOperation invokes an executable resource, with an optional
// opaque argument payload (spec.md §4.7). Executing a resource whose
// definition is not Execute-operable yields a BadRequest LWM2M error per
// path; the overall Perform still returns ErrorKindResponse, since the
// transport itself succeeded.
type ExecuteOperation struct {
	core *operationCore
}

// NewExecuteOperation constructs an Execute operation on session.
func NewExecuteOperation(session *Session) *ExecuteOperation {
	return &ExecuteOperation{core: newOperationCore(session, subtypeExecute)}
}

// AddPath stages path on clientID for execution, with an optional
// argument payload (nil or empty are both valid: "no arguments").
func (op *ExecuteOperation) AddPath(clientID string, path Path, arguments []byte) error {
	if !path.IsResource() {
		return newAPIError(ErrorKindPathInvalid, "Execute requires a resource path")
	}
	_, err := op.core.addPath(clientID, path)
	if err != nil {
		return err
	}
	op.core.setArgs(clientID, path.String(), arguments)
	return nil
}

// Perform sends the Execute request and blocks for up to timeout.
func (op *ExecuteOperation) Perform(timeout time.Duration) error {
	return op.core.perform(timeout)
}

// Response returns the per-path Execute results, if Perform completed.
func (op *ExecuteOperation) Response() (*Response, bool) {
	return op.core.getResponse()
}

// Free releases the operation.
func (op *ExecuteOperation) Free() { op.core.free() }
