package awaserver

// ChangeSet is the read-only event delivered to an Observation's callback:
// the originating client and an objects tree of the paths that changed,
// each tagged with a ChangeType (spec.md §3.1).
type ChangeSet struct {
	session  *Session
	clientID string
	tree     *Tree
}

// Session returns the session this ChangeSet was dispatched from.
func (c *ChangeSet) Session() *Session { return c.session }

// ClientID returns the client the change originated from.
func (c *ChangeSet) ClientID() string { return c.clientID }

// ChangeType returns the kind of change recorded for path, if path is
// part of this ChangeSet.
func (c *ChangeSet) ChangeType(path Path) (ChangeType, bool) {
	node, ok := c.tree.Lookup(path)
	if !ok {
		return ChangeTypeNone, false
	}
	return node.ChangeType(), true
}

// Value returns the changed value at path, if this ChangeSet carries one
// (e.g. ResourceModified/ResourceCreated notifications include the new
// value).
func (c *ChangeSet) Value(path Path) (Value, bool) {
	node, ok := c.tree.Lookup(path)
	if !ok {
		return Value{}, false
	}
	return node.Value()
}

// ChangedPaths returns every path in this ChangeSet, in pre-order.
func (c *ChangeSet) ChangedPaths() []Path {
	var paths []Path
	c.tree.Walk(func(n *Node) {
		if n.ChangeType() != ChangeTypeNone {
			paths = append(paths, n.Path())
		}
	})
	return paths
}

// dispatchObservationNotification parses a Notify-Observe document and
// invokes the matching Observation callback for each client it mentions,
// per spec.md §4.8: "the session's observation registry is consulted for
// observations whose paths intersect the delivered tree, and for each
// matching observation a ChangeSet is constructed and the callback is
// invoked."
func (s *Session) dispatchObservationNotification(doc *wireDoc) {
	if doc.Content == nil {
		return
	}
	clientTrees := xmlToClientTrees(doc.Content.Clients, s.registry)
	for clientID, tree := range clientTrees {
		changedNodes := collectChanged(tree)
		if len(changedNodes) == 0 {
			continue
		}
		perObservation := make(map[*Observation]*Tree)
		for _, node := range changedNodes {
			for _, obs := range s.observationsForPath(clientID, node.Path()) {
				target, ok := perObservation[obs]
				if !ok {
					target = NewTree()
					perObservation[obs] = target
				}
				copyNode := target.Insert(node.Path())
				copyNode.SetChangeType(node.ChangeType())
				if v, ok := node.Value(); ok {
					copyNode.SetValue(v)
				}
				break // nearest-ancestor match only, per observation
			}
		}
		for obs, target := range perObservation {
			if obs.callback == nil {
				continue
			}
			obs.callback(&ChangeSet{session: s, clientID: clientID, tree: target})
		}
	}
}

func collectChanged(tree *Tree) []*Node {
	var nodes []*Node
	tree.Walk(func(n *Node) {
		if n.ChangeType() != ChangeTypeNone {
			nodes = append(nodes, n)
		}
	})
	return nodes
}
