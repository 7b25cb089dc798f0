package awaserver

import "time"

// defineClientID is the synthetic client key Define's request tree is
// filed under: Define is not client-addressed (it defines objects on the
// daemon itself), but operationCore is keyed by client ID, so Define uses
// a single fixed key internally.
const defineClientID = ""

// DefineOperation registers one or more object definitions with the
// daemon (spec.md §4.7). Each added definition is deep-copied at Add time,
// so the caller's ObjectDefinition may be freed or mutated immediately
// afterward.
type DefineOperation struct {
	core *operationCore
	defs []*ObjectDefinition
}

// NewDefineOperation constructs a Define operation on session.
func NewDefineOperation(session *Session) *DefineOperation {
	return &DefineOperation{core: newOperationCore(session, subtypeDefine)}
}

// Add stages objectDef for definition. A deep copy is taken immediately.
func (op *DefineOperation) Add(objectDef *ObjectDefinition) {
	op.defs = append(op.defs, objectDef.clone())
	op.core.pathCount++
}

// Perform sends the Define request and, on overall success, installs the
// defined objects into the session's local registry (spec.md §4.7: "on
// overall success the session's registry is also updated locally").
func (op *DefineOperation) Perform(timeout time.Duration) error {
	if err := op.core.checkPerformable(timeout); err != nil {
		return err
	}
	op.core.mu.Lock()
	op.core.performing = true
	op.core.mu.Unlock()
	defer func() {
		op.core.mu.Lock()
		op.core.performing = false
		op.core.mu.Unlock()
	}()

	session := op.core.session
	doc := &wireDoc{
		XMLName:   xmlNameRequest,
		Type:      subtypeDefine,
		SessionID: session.id,
		MessageID: formatMessageID(session.transport.nextMessageID()),
		Content:   &wireContentXML{},
	}
	doc.Content.Definitions = definitionsToWireDoc(op.defs)

	resp, err := session.transport.sendRequestAwaitResponse(doc, timeout)
	if err != nil {
		return err
	}

	tree := NewTree()
	allOK := true
	if resp.Content != nil && resp.Content.Definitions != nil {
		for _, x := range resp.Content.Definitions.Objects {
			objectID := parseID(x.ObjectID)
			p, _ := NewObjectPath(objectID)
			node := tree.Insert(p)
			node.SetResult(Success)
		}
	}
	if len(tree.root.children) == 0 {
		// Daemon reported no per-object results: fall back to one result
		// per requested definition, defaulting to Success.
		for _, def := range op.defs {
			p, _ := NewObjectPath(def.ID)
			tree.Insert(p).SetResult(Success)
		}
	}
	tree.Walk(func(n *Node) {
		if r, ok := n.Result(); ok && r.Error != ErrorKindSuccess {
			allOK = false
		}
	})

	op.core.mu.Lock()
	op.core.performed = true
	op.core.response = &Response{op: op.core, clients: map[string]*Tree{defineClientID: tree}}
	op.core.mu.Unlock()

	if allOK {
		for _, def := range op.defs {
			_ = session.registry.Add(def)
		}
	}
	if !allOK {
		return newAPIError(ErrorKindResponse, "one or more definitions were rejected")
	}
	return nil
}

// Response returns the per-object-ID results, if Perform completed.
func (op *DefineOperation) Response() (*DefineResponse, bool) {
	r, ok := op.core.getResponse()
	if !ok {
		return nil, false
	}
	return &DefineResponse{Response: r}, true
}

// Free releases the operation.
func (op *DefineOperation) Free() { op.core.free() }

// DefineResponse carries one PathResult per defined object ID.
type DefineResponse struct {
	*Response
}

// Result returns the outcome for objectID.
func (r *DefineResponse) Result(objectID uint32) PathResult {
	p, _ := NewObjectPath(objectID)
	return r.Response.Result(defineClientID, p)
}
