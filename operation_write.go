package awaserver

import "time"

// WriteMode chooses PUT (Replace) or POST (Update) semantics for a Write
// (spec.md §4.7, sharpened by original_source/api/src/write_mode.c): the
// default applies to the whole operation and may be overridden per
// object-instance or per-resource.
type WriteMode int

const (
	// WriteModeReplace is PUT semantics: the target is replaced wholesale.
	WriteModeReplace WriteMode = iota
	// WriteModeUpdate is POST semantics: the target is merged into.
	WriteModeUpdate
)

func (m WriteMode) wireString() string {
	if m == WriteModeUpdate {
		return "Update"
	}
	return "Replace"
}

// WriteOperation writes resource values to a single client (spec.md
// §4.7: "A single Perform carries one client ID").
type WriteOperation struct {
	core        *operationCore
	clientID    string
	defaultMode WriteMode
}

// NewWriteOperation constructs a Write operation targeting clientID, with
// defaultMode applied to every path unless overridden.
func NewWriteOperation(session *Session, clientID string, defaultMode WriteMode) *WriteOperation {
	core := newOperationCore(session, subtypeWrite)
	core.singleClient = true
	return &WriteOperation{core: core, clientID: clientID, defaultMode: defaultMode}
}

// CreateObjectInstance requests creation of the object instance at path
// (which may carry an explicit instance ID, or invalidID to let the
// daemon assign one).
func (op *WriteOperation) CreateObjectInstance(path Path) error {
	_, err := op.core.addPath(op.clientID, path)
	return err
}

// SetObjectInstanceWriteMode overrides the write mode for every resource
// beneath instancePath.
func (op *WriteOperation) SetObjectInstanceWriteMode(instancePath Path, mode WriteMode) {
	op.core.treeFor(op.clientID) // ensure the client tree exists
	op.core.setWriteMode(op.clientID, instancePath.String(), mode.wireString())
}

// SetResourceWriteMode overrides the write mode for resourcePath alone.
func (op *WriteOperation) SetResourceWriteMode(resourcePath Path, mode WriteMode) {
	op.core.setWriteMode(op.clientID, resourcePath.String(), mode.wireString())
}

func (op *WriteOperation) addValue(path Path, v Value) error {
	node, err := op.core.addPath(op.clientID, path)
	if err != nil {
		return err
	}
	node.SetValue(v)
	return nil
}

// AddValueAsString stages a String value at path.
func (op *WriteOperation) AddValueAsString(path Path, v string) error {
	return op.addValue(path, NewStringValue(v))
}

// AddValueAsInteger stages an Integer value at path.
func (op *WriteOperation) AddValueAsInteger(path Path, v int64) error {
	return op.addValue(path, NewIntegerValue(v))
}

// AddValueAsFloat stages a Float value at path.
func (op *WriteOperation) AddValueAsFloat(path Path, v float64) error {
	return op.addValue(path, NewFloatValue(v))
}

// AddValueAsBoolean stages a Boolean value at path.
func (op *WriteOperation) AddValueAsBoolean(path Path, v bool) error {
	return op.addValue(path, NewBooleanValue(v))
}

// AddValueAsOpaque stages an Opaque value at path.
func (op *WriteOperation) AddValueAsOpaque(path Path, v []byte) error {
	return op.addValue(path, NewOpaqueValue(v))
}

// AddValueAsTime stages a Time value at path.
func (op *WriteOperation) AddValueAsTime(path Path, v int64) error {
	return op.addValue(path, NewTimeValue(v))
}

// AddValueAsObjectLink stages an ObjectLink value at path.
func (op *WriteOperation) AddValueAsObjectLink(path Path, v ObjectLink) error {
	return op.addValue(path, NewObjectLinkValue(v))
}

// AddArrayValueAsString stages a sparse String array at path, one element
// per (index, value) pair in elems.
func (op *WriteOperation) AddArrayValueAsString(path Path, elems map[uint16]string) error {
	arr := NewArrayValue(ResourceTypeString)
	for i, v := range elems {
		arr.SetAt(i, NewStringValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValueAsInteger stages a sparse Integer array at path.
func (op *WriteOperation) AddArrayValueAsInteger(path Path, elems map[uint16]int64) error {
	arr := NewArrayValue(ResourceTypeInteger)
	for i, v := range elems {
		arr.SetAt(i, NewIntegerValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValueAsFloat stages a sparse Float array at path.
func (op *WriteOperation) AddArrayValueAsFloat(path Path, elems map[uint16]float64) error {
	arr := NewArrayValue(ResourceTypeFloat)
	for i, v := range elems {
		arr.SetAt(i, NewFloatValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValueAsBoolean stages a sparse Boolean array at path.
func (op *WriteOperation) AddArrayValueAsBoolean(path Path, elems map[uint16]bool) error {
	arr := NewArrayValue(ResourceTypeBoolean)
	for i, v := range elems {
		arr.SetAt(i, NewBooleanValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValueAsOpaque stages a sparse Opaque array at path.
func (op *WriteOperation) AddArrayValueAsOpaque(path Path, elems map[uint16][]byte) error {
	arr := NewArrayValue(ResourceTypeOpaque)
	for i, v := range elems {
		arr.SetAt(i, NewOpaqueValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValueAsTime stages a sparse Time array at path.
func (op *WriteOperation) AddArrayValueAsTime(path Path, elems map[uint16]int64) error {
	arr := NewArrayValue(ResourceTypeTime)
	for i, v := range elems {
		arr.SetAt(i, NewTimeValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValueAsObjectLink stages a sparse ObjectLink array at path.
func (op *WriteOperation) AddArrayValueAsObjectLink(path Path, elems map[uint16]ObjectLink) error {
	arr := NewArrayValue(ResourceTypeObjectLink)
	for i, v := range elems {
		arr.SetAt(i, NewObjectLinkValue(v))
	}
	return op.addValue(path, arr)
}

// AddArrayValue stages a whole (sparse) array Value at path, e.g. built
// with NewArrayValue + SetAt. Use this for an array already assembled by
// the caller; the AddArrayValueAs* family above covers the common case of
// building one from a map of elements directly.
func (op *WriteOperation) AddArrayValue(path Path, v Value) error {
	if !v.IsArray() {
		return newAPIError(ErrorKindTypeMismatch, "AddArrayValue requires an array Value")
	}
	return op.addValue(path, v)
}

// Perform sends the Write request and blocks for up to timeout. Every
// object-instance in the request that has no explicit write-mode override
// is stamped with the operation's default mode.
func (op *WriteOperation) Perform(timeout time.Duration) error {
	if tree, ok := op.core.trees[op.clientID]; ok {
		tree.Walk(func(n *Node) {
			if n.Kind() != NodeKindObjectInstance {
				return
			}
			key := n.Path().String()
			if perClient, ok := op.core.writeModes[op.clientID]; ok {
				if _, overridden := perClient[key]; overridden {
					return
				}
			}
			op.core.setWriteMode(op.clientID, key, op.defaultMode.wireString())
		})
	}
	return op.core.perform(timeout)
}

// Response returns the per-path Write results, if Perform completed.
func (op *WriteOperation) Response() (*Response, bool) {
	return op.core.getResponse()
}

// Free releases the operation.
func (op *WriteOperation) Free() { op.core.free() }
