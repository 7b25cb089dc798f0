package awaserver

import "time"

// ObserveOperation registers or cancels Observations (spec.md §4.7). A
// single Perform may carry both new subscriptions and cancellations.
type ObserveOperation struct {
	core *operationCore
}

// NewObserveOperation constructs an Observe operation on session.
func NewObserveOperation(session *Session) *ObserveOperation {
	return &ObserveOperation{core: newOperationCore(session, subtypeObserve)}
}

// AddObservation stages obs for subscription. Adding the same observation
// to the same operation twice is rejected with OperationInvalid.
func (op *ObserveOperation) AddObservation(obs *Observation) error {
	if err := obs.addToOperation(op.core); err != nil {
		return err
	}
	node, err := op.core.addPath(obs.clientID, obs.path)
	if err != nil {
		obs.removeFromOperation(op.core)
		return err
	}
	node.SetCancel(false)
	op.core.observeAdds = append(op.core.observeAdds, obs)
	return nil
}

// AddCancelObservation stages obs for cancellation.
func (op *ObserveOperation) AddCancelObservation(obs *Observation) error {
	if err := obs.addToOperation(op.core); err != nil {
		return err
	}
	node, err := op.core.addPath(obs.clientID, obs.path)
	if err != nil {
		obs.removeFromOperation(op.core)
		return err
	}
	node.SetCancel(true)
	op.core.observeCancels = append(op.core.observeCancels, obs)
	return nil
}

// Perform sends the Observe request and blocks for up to timeout. An
// observation freed before Perform silently drops from the request
// (spec.md §4.7 edge case); if that leaves zero paths, Perform reports
// OperationInvalid like any other empty operation.
func (op *ObserveOperation) Perform(timeout time.Duration) error {
	op.pruneFreedObservations()
	return op.core.perform(timeout)
}

func (op *ObserveOperation) pruneFreedObservations() {
	op.core.mu.Lock()
	defer op.core.mu.Unlock()
	op.core.observeAdds = pruneFreed(op.core.observeAdds, op.core.trees, &op.core.pathCount)
	op.core.observeCancels = pruneFreed(op.core.observeCancels, op.core.trees, &op.core.pathCount)
}

// pruneFreed drops any freed observation from list, and removes its node
// from the request tree it was inserted into (so the response carries no
// entry for a path that was never actually sent).
func pruneFreed(list []*Observation, trees map[string]*Tree, pathCount *int) []*Observation {
	live := list[:0]
	for _, obs := range list {
		if obs.IsFreed() {
			if tree, ok := trees[obs.clientID]; ok {
				removeNodeAt(tree, obs.path)
				*pathCount--
			}
			continue
		}
		live = append(live, obs)
	}
	return live
}

// removeNodeAt deletes the node addressed by path from tree, pruning any
// now-empty ancestor chain down to (but not including) the root.
func removeNodeAt(tree *Tree, path Path) {
	objectID := path.ObjectID()
	objKey := childKeyFor(NodeKindObject, objectID) + ":" + pathSegmentKey(objectID)
	objNode, ok := tree.root.children[objKey]
	if !ok {
		return
	}
	if path.IsObject() {
		deleteChild(tree.root, objKey)
		return
	}
	instanceID, _ := path.InstanceID()
	instKey := childKeyFor(NodeKindObjectInstance, instanceID) + ":" + pathSegmentKey(instanceID)
	instNode, ok := objNode.children[instKey]
	if !ok {
		return
	}
	if path.IsObjectInstance() {
		deleteChild(objNode, instKey)
		if len(objNode.children) == 0 {
			deleteChild(tree.root, objKey)
		}
		return
	}
	resourceID, _ := path.ResourceID()
	resKey := childKeyFor(NodeKindResource, resourceID) + ":" + pathSegmentKey(resourceID)
	if _, ok := instNode.children[resKey]; ok {
		deleteChild(instNode, resKey)
		if len(instNode.children) == 0 {
			deleteChild(objNode, instKey)
		}
		if len(objNode.children) == 0 {
			deleteChild(tree.root, objKey)
		}
	}
}

func deleteChild(parent *Node, key string) {
	delete(parent.children, key)
	for i, k := range parent.order {
		if k == key {
			parent.order = append(parent.order[:i], parent.order[i+1:]...)
			break
		}
	}
}

// applyObservationSideEffects registers newly-subscribed observations
// and unregisters cancelled ones in the session's observation registry,
// based on the per-path result each received (spec.md §4.7: "Successful
// observations are registered with the session").
func (o *operationCore) applyObservationSideEffects() {
	if o.subtype != subtypeObserve || o.response == nil {
		return
	}
	for _, obs := range o.observeAdds {
		if o.response.Result(obs.clientID, obs.path).Error == ErrorKindSuccess {
			o.session.registerObservation(obs)
		}
	}
	for _, obs := range o.observeCancels {
		if o.response.Result(obs.clientID, obs.path).Error == ErrorKindSuccess {
			o.session.unregisterObservation(obs)
		}
	}
}

// Response returns the per-path Observe results, if Perform completed.
func (op *ObserveOperation) Response() (*Response, bool) {
	return op.core.getResponse()
}

// Free releases the operation and detaches every observation it added or
// cancelled.
func (op *ObserveOperation) Free() { op.core.free() }
