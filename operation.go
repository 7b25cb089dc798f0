package awaserver

import (
	"sort"
	"sync"
	"time"
)

// operationCore is the shared state machine behind every operation type in
// the table at spec.md §4.7: a session reference, a per-client request
// tree, and (after a single Perform) a per-client Response. It plays the
// role the teacher's per-message-ID bookkeeping in coap.go plays for a
// single in-flight exchange, generalised to a whole tree of paths instead
// of one CoAP request.
type operationCore struct {
	session *Session
	subtype messageSubtype

	mu          sync.Mutex
	freed       bool
	performing  bool
	performed   bool
	singleClient bool

	clientOrder []string
	trees       map[string]*Tree
	writeModes  map[string]map[string]string // clientID -> path string -> "Replace"/"Update"
	execArgs    map[string]string            // clientID+path -> base64 argument payload
	pathCount   int

	observeAdds     []*Observation
	observeCancels  []*Observation

	response *Response
}

func newOperationCore(session *Session, subtype messageSubtype) *operationCore {
	core := &operationCore{
		session: session,
		subtype: subtype,
		trees:   make(map[string]*Tree),
	}
	session.trackOperation(core)
	return core
}

// treeFor returns (creating if necessary) the request tree for clientID,
// recording client IDs in insertion order for addPath's single-client check.
func (o *operationCore) treeFor(clientID string) *Tree {
	t, ok := o.trees[clientID]
	if !ok {
		t = NewTree()
		o.trees[clientID] = t
		o.clientOrder = append(o.clientOrder, clientID)
	}
	return t
}

// addPath inserts path into clientID's request tree and counts it toward
// the "zero paths" check (spec.md §4.7 edge case: "Perform with zero
// paths: OperationInvalid").
func (o *operationCore) addPath(clientID string, path Path) (*Node, error) {
	if o.singleClient && len(o.clientOrder) == 1 && o.clientOrder[0] != clientID {
		return nil, newAPIError(ErrorKindOperationInvalid, "this operation carries a single client ID")
	}
	node := o.treeFor(clientID).Insert(path)
	o.pathCount++
	return node, nil
}

func (o *operationCore) setWriteMode(clientID, pathStr, mode string) {
	if o.writeModes == nil {
		o.writeModes = make(map[string]map[string]string)
	}
	perClient, ok := o.writeModes[clientID]
	if !ok {
		perClient = make(map[string]string)
		o.writeModes[clientID] = perClient
	}
	perClient[pathStr] = mode
}

func (o *operationCore) setArgs(clientID, pathStr string, args []byte) {
	if o.execArgs == nil {
		o.execArgs = make(map[string]string)
	}
	if args == nil {
		return
	}
	wire, _ := encodeScalarWire(NewOpaqueValue(args))
	o.execArgs[clientID+pathStr] = wire
}

// checkPerformable validates the preconditions common to every operation
// type before a Perform is attempted: freed handle, negative timeout,
// disconnected session, re-entrant Perform from inside a callback
// (spec.md §4.8: "the implementation detects and refuses with
// OperationInvalid"), a Perform already in flight (invariant 5), a Perform
// already completed (spec.md: a completed operation, failed or not, may be
// freed normally but must not be re-performed), and zero paths.
func (o *operationCore) checkPerformable(timeout time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.freed {
		return ErrOperationInvalid
	}
	if timeout < 0 {
		return newAPIError(ErrorKindOperationInvalid, "negative timeout")
	}
	if o.session == nil {
		return ErrSessionInvalid
	}
	if err := o.session.checkConnected(); err != nil {
		return err
	}
	if o.session.dispatching {
		return newAPIError(ErrorKindOperationInvalid, "Perform called from inside a DispatchCallbacks callback")
	}
	if o.performing {
		return newAPIError(ErrorKindOperationInvalid, "a Perform is already in flight on this operation")
	}
	if o.performed {
		return newAPIError(ErrorKindOperationInvalid, "this operation has already been performed")
	}
	if o.pathCount == 0 {
		return newAPIError(ErrorKindOperationInvalid, "operation has no paths")
	}
	return nil
}

// perform sends the request built from o's accumulated trees and parses
// the daemon's reply into a Response. Returns an APIError of kind
// ErrorKindResponse (matched by ErrResponse) rather than nil when the transport succeeded but one or more per-path results
// are errors, matching spec.md §4.7's "top-level Perform returns this
// when transport succeeded but... inspect the per-path results."
func (o *operationCore) perform(timeout time.Duration) error {
	if err := o.checkPerformable(timeout); err != nil {
		return err
	}
	o.mu.Lock()
	o.performing = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.performing = false
		o.mu.Unlock()
	}()

	doc := &wireDoc{
		XMLName:   xmlNameRequest,
		Type:      o.subtype,
		SessionID: o.session.id,
		MessageID: formatMessageID(o.session.transport.nextMessageID()),
		Content: &wireContentXML{
			Clients: clientTreesToXML(o.trees, o.writeModes, o.execArgs),
		},
	}
	resp, err := o.session.transport.sendRequestAwaitResponse(doc, timeout)
	if err != nil {
		return err
	}

	var clientTrees map[string]*Tree
	if resp.Content != nil {
		clientTrees = xmlToClientTrees(resp.Content.Clients, o.session.registry)
	}
	o.mu.Lock()
	o.performed = true
	o.response = &Response{op: o, clients: clientTrees}
	o.mu.Unlock()

	o.applyObservationSideEffects()

	if responseHasError(clientTrees) {
		return newAPIError(ErrorKindResponse, "one or more paths returned errors; inspect Response")
	}
	return nil
}

func responseHasError(clients map[string]*Tree) bool {
	for _, tree := range clients {
		found := false
		tree.Walk(func(n *Node) {
			if r, ok := n.Result(); ok && r.Error != ErrorKindSuccess {
				found = true
			}
		})
		if found {
			return true
		}
	}
	return false
}

// getResponse returns the operation's parsed Response, if Perform has
// completed (and the operation has not since been freed).
func (o *operationCore) getResponse() (*Response, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.freed || o.response == nil {
		return nil, false
	}
	return o.response, true
}

// invalidate is called by Session.Free: it detaches the operation from
// its session and marks it (and any Response derived from it) invalid,
// per invariant 7.
func (o *operationCore) invalidate() {
	o.free()
}

// free releases the operation: detaches every observation reference it
// holds and invalidates its Response. Idempotent.
func (o *operationCore) free() {
	o.mu.Lock()
	if o.freed {
		o.mu.Unlock()
		return
	}
	o.freed = true
	adds := o.observeAdds
	cancels := o.observeCancels
	o.observeAdds = nil
	o.observeCancels = nil
	o.response = nil
	o.mu.Unlock()

	for _, obs := range adds {
		obs.removeFromOperation(o)
	}
	for _, obs := range cancels {
		obs.removeFromOperation(o)
	}
	if o.session != nil {
		o.session.untrackOperation(o)
	}
}

// detachObservation removes obs from this operation's add/cancel lists,
// called when obs is freed independently of the operation (spec.md §4.7
// edge case: "Adding an observation to one operation, then freeing the
// observation before Perform: that observation's path silently drops
// from the request").
func (o *operationCore) detachObservation(obs *Observation) {
	o.mu.Lock()
	defer o.mu.Unlock()
	before := len(o.observeAdds) + len(o.observeCancels)
	o.observeAdds = removeObservation(o.observeAdds, obs)
	o.observeCancels = removeObservation(o.observeCancels, obs)
	if len(o.observeAdds)+len(o.observeCancels) < before {
		if tree, ok := o.trees[obs.clientID]; ok {
			removeNodeAt(tree, obs.path)
			o.pathCount--
		}
	}
}

func removeObservation(list []*Observation, obs *Observation) []*Observation {
	out := list[:0]
	for _, o := range list {
		if o != obs {
			out = append(out, o)
		}
	}
	return out
}

// Response is a read-only, per-client view of an operation's results.
// Its lifetime is bound to the parent operation: once the operation is
// freed, every accessor below reports absent/zero (invariant 7).
type Response struct {
	op      *operationCore
	clients map[string]*Tree
}

func (r *Response) valid() bool {
	if r == nil || r.op == nil {
		return false
	}
	r.op.mu.Lock()
	defer r.op.mu.Unlock()
	return !r.op.freed
}

// ClientIDs returns the client IDs present in this response, sorted.
func (r *Response) ClientIDs() []string {
	if !r.valid() {
		return nil
	}
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasClient reports whether clientID is present in the response.
func (r *Response) HasClient(clientID string) bool {
	if !r.valid() {
		return false
	}
	_, ok := r.clients[clientID]
	return ok
}

// Result returns the per-path outcome for (clientID, path). A client ID
// absent from the response yields ClientNotFound, per spec.md §4.7 ("A
// path result for a missing client is ClientNotFound").
func (r *Response) Result(clientID string, path Path) PathResult {
	if !r.valid() {
		return PathResult{Error: ErrorKindOperationInvalid}
	}
	tree, ok := r.clients[clientID]
	if !ok {
		return PathResult{Error: ErrorKindClientNotFound}
	}
	node, ok := tree.Lookup(path)
	if !ok {
		return PathResult{Error: ErrorKindClientNotFound}
	}
	if res, ok := node.Result(); ok {
		return res
	}
	return Success
}

// Paths returns the path of every node in the given client's response
// tree, ancestors included, in pre-order.
func (r *Response) Paths(clientID string) []Path {
	if !r.valid() {
		return nil
	}
	tree, ok := r.clients[clientID]
	if !ok {
		return nil
	}
	var paths []Path
	tree.Walk(func(n *Node) { paths = append(paths, n.Path()) })
	return paths
}

func (r *Response) node(clientID string, path Path) (*Node, bool) {
	if !r.valid() {
		return nil, false
	}
	tree, ok := r.clients[clientID]
	if !ok {
		return nil, false
	}
	return tree.Lookup(path)
}
