package awaserver

// ClientRegisterEvent is delivered to the session's register callback
// when a client registers with the daemon (spec.md §3.1, §4.9). It wraps
// the notification's parsed tree so it can reuse the same client/entity
// iterators as ListClientsResponse (original_source/server_events.c:
// "one tree, two read-only iterator views").
type ClientRegisterEvent struct {
	clients map[string]*Tree
}

// ClientIDs returns the client IDs this event reports.
func (e *ClientRegisterEvent) ClientIDs() []string { return clientIDsOf(e.clients) }

// RegisteredEntities returns the registered entity paths reported for
// clientID.
func (e *ClientRegisterEvent) RegisteredEntities(clientID string) []Path {
	return registeredEntitiesOf(e.clients, clientID)
}

// ClientUpdateEvent is delivered to the session's update callback when a
// client refreshes its registration.
type ClientUpdateEvent struct {
	clients map[string]*Tree
}

// ClientIDs returns the client IDs this event reports.
func (e *ClientUpdateEvent) ClientIDs() []string { return clientIDsOf(e.clients) }

// RegisteredEntities returns the registered entity paths reported for
// clientID.
func (e *ClientUpdateEvent) RegisteredEntities(clientID string) []Path {
	return registeredEntitiesOf(e.clients, clientID)
}

// ClientDeregisterEvent is delivered to the session's deregister callback
// when a client deregisters or its registration lease lapses.
type ClientDeregisterEvent struct {
	clients map[string]*Tree
}

// ClientIDs returns the client IDs this event reports.
func (e *ClientDeregisterEvent) ClientIDs() []string { return clientIDsOf(e.clients) }

func clientIDsOf(clients map[string]*Tree) []string {
	ids := make([]string, 0, len(clients))
	for id := range clients {
		ids = append(ids, id)
	}
	sortStrings(ids, func(a, b string) bool { return a < b })
	return ids
}

func registeredEntitiesOf(clients map[string]*Tree, clientID string) []Path {
	tree, ok := clients[clientID]
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

func (s *Session) dispatchRegister(doc *wireDoc) {
	if s.onRegister == nil || doc.Content == nil {
		return
	}
	s.onRegister(&ClientRegisterEvent{clients: xmlToClientTrees(doc.Content.Clients, s.registry)})
}

func (s *Session) dispatchUpdate(doc *wireDoc) {
	if s.onUpdate == nil || doc.Content == nil {
		return
	}
	s.onUpdate(&ClientUpdateEvent{clients: xmlToClientTrees(doc.Content.Clients, s.registry)})
}

func (s *Session) dispatchDeregister(doc *wireDoc) {
	if s.onDeregister == nil {
		return
	}
	var clients map[string]*Tree
	if doc.Content != nil {
		clients = xmlToClientTrees(doc.Content.Clients, s.registry)
	}
	s.onDeregister(&ClientDeregisterEvent{clients: clients})
}
