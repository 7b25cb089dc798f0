package awaserver

import "time"

// WriteAttributesOperation tunes LWM2M notification attributes (pmin,
// pmax, gt, lt, stp) on one or more paths. Per spec.md §4.7 the daemon
// applies attributes atomically per path: if any attribute for a path is
// rejected, none are written for that path.
type WriteAttributesOperation struct {
	core *operationCore
}

// NewWriteAttributesOperation constructs a WriteAttributes operation on
// session.
func NewWriteAttributesOperation(session *Session) *WriteAttributesOperation {
	return &WriteAttributesOperation{core: newOperationCore(session, subtypeWriteAttributes)}
}

func (op *WriteAttributesOperation) addAttribute(clientID string, path Path, link AttributeLink, value float64) error {
	node, err := op.core.addPath(clientID, path)
	if err != nil {
		return err
	}
	node.SetAttribute(link, value)
	return nil
}

// AddAttributeAsInteger stages an integer-valued attribute (pmin, pmax)
// at path on clientID.
func (op *WriteAttributesOperation) AddAttributeAsInteger(clientID string, path Path, link AttributeLink, value int64) error {
	return op.addAttribute(clientID, path, link, float64(value))
}

// AddAttributeAsFloat stages a float-valued attribute (gt, lt, stp) at
// path on clientID.
func (op *WriteAttributesOperation) AddAttributeAsFloat(clientID string, path Path, link AttributeLink, value float64) error {
	return op.addAttribute(clientID, path, link, value)
}

// Perform sends the WriteAttributes request and blocks for up to timeout.
func (op *WriteAttributesOperation) Perform(timeout time.Duration) error {
	return op.core.perform(timeout)
}

// Response returns the per-path WriteAttributes results, if Perform
// completed.
func (op *WriteAttributesOperation) Response() (*Response, bool) {
	return op.core.getResponse()
}

// Free releases the operation.
func (op *WriteAttributesOperation) Free() { op.core.free() }
