package awaserver

import "time"

// ReadOperation requests the current value of one or more paths on one or
// more clients (spec.md §4.7). Paths may address an object, an object
// instance, or a resource; the daemon replies with every resource value
// found at or beneath each requested path.
type ReadOperation struct {
	core *operationCore
}

// NewReadOperation constructs a Read operation on session.
func NewReadOperation(session *Session) *ReadOperation {
	return &ReadOperation{core: newOperationCore(session, subtypeRead)}
}

// AddPath stages path on clientID for reading.
func (op *ReadOperation) AddPath(clientID string, path Path) error {
	_, err := op.core.addPath(clientID, path)
	return err
}

// Perform sends the Read request and blocks for up to timeout.
func (op *ReadOperation) Perform(timeout time.Duration) error {
	return op.core.perform(timeout)
}

// Response returns the parsed ReadResponse, if Perform completed.
func (op *ReadOperation) Response() (*ReadResponse, bool) {
	r, ok := op.core.getResponse()
	if !ok {
		return nil, false
	}
	return &ReadResponse{Response: r}, true
}

// Free releases the operation.
func (op *ReadOperation) Free() { op.core.free() }

// ReadResponse exposes the per-client, per-path values and results
// returned by a Read (spec.md §4.7: "typed accessors return a borrowed
// pointer whose lifetime is the operation's").
type ReadResponse struct {
	*Response
}

// HasValue reports whether clientID returned a value for path. True only
// for resource paths actually present in the response, per spec.md §4.7.
func (r *ReadResponse) HasValue(clientID string, path Path) bool {
	node, ok := r.node(clientID, path)
	if !ok {
		return false
	}
	_, hasValue := node.Value()
	return hasValue
}

// Value returns the raw Value at (clientID, path), if present.
func (r *ReadResponse) Value(clientID string, path Path) (Value, bool) {
	node, ok := r.node(clientID, path)
	if !ok {
		return Value{}, false
	}
	return node.Value()
}

// ValueAsString returns the String scalar at (clientID, path).
func (r *ReadResponse) ValueAsString(clientID string, path Path) (string, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// ValueAsInteger returns the Integer scalar at (clientID, path).
func (r *ReadResponse) ValueAsInteger(clientID string, path Path) (int64, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return 0, false
	}
	return v.AsInteger()
}

// ValueAsFloat returns the Float scalar at (clientID, path).
func (r *ReadResponse) ValueAsFloat(clientID string, path Path) (float64, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

// ValueAsBoolean returns the Boolean scalar at (clientID, path).
func (r *ReadResponse) ValueAsBoolean(clientID string, path Path) (bool, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return false, false
	}
	return v.AsBoolean()
}

// ValueAsOpaque returns the Opaque scalar at (clientID, path).
func (r *ReadResponse) ValueAsOpaque(clientID string, path Path) ([]byte, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return nil, false
	}
	return v.AsOpaque()
}

// ValueAsTime returns the Time scalar at (clientID, path).
func (r *ReadResponse) ValueAsTime(clientID string, path Path) (int64, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return 0, false
	}
	return v.AsTime()
}

// ValueAsObjectLink returns the ObjectLink scalar at (clientID, path).
func (r *ReadResponse) ValueAsObjectLink(clientID string, path Path) (ObjectLink, bool) {
	v, ok := r.Value(clientID, path)
	if !ok {
		return ObjectLink{}, false
	}
	return v.AsObjectLink()
}

// PathIterator walks the resource paths present for clientID, in
// pre-order; it is the "path iterator" spec.md §4.7 calls for.
func (r *ReadResponse) PathIterator(clientID string) []Path {
	if !r.valid() {
		return nil
	}
	tree, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	var paths []Path
	tree.Walk(func(n *Node) {
		if n.Kind() == NodeKindResource {
			paths = append(paths, n.Path())
		}
	})
	return paths
}
