package awaserver

// Observation is a long-lived subscription to changes at a (clientID,
// path) pair, independent of any single operation's lifetime (spec.md
// §3.1). Per the "cyclic ownership" design note (spec.md §9), an
// Observation is shared between the application, zero or more
// operationCore values (the Observe operations it was added to, for add
// or cancel), and the session's observation registry; it holds indices
// into that registry's slab rather than pointers, so freeing any one
// side only severs that link.
type Observation struct {
	clientID string
	path     Path
	callback func(*ChangeSet)
	context  interface{}

	session *Session
	// slotIndex is this observation's position in the session's
	// observation slab, or -1 if not currently registered there.
	slotIndex int

	inOperations map[*operationCore]struct{}

	freed bool
}

// NewObservation constructs an Observation for (clientID, path). callback
// is invoked (on the goroutine calling Session.DispatchCallbacks) whenever
// a ChangeSet touching path arrives for clientID after this observation
// has been registered by a successful Observe Perform. context is an
// arbitrary caller value retrievable from the callback via Context.
func NewObservation(clientID string, path Path, callback func(*ChangeSet), context interface{}) *Observation {
	return &Observation{
		clientID:     clientID,
		path:         path,
		callback:     callback,
		context:      context,
		slotIndex:    -1,
		inOperations: make(map[*operationCore]struct{}),
	}
}

// ClientID returns the client this observation targets.
func (o *Observation) ClientID() string { return o.clientID }

// Path returns the path this observation targets.
func (o *Observation) Path() Path { return o.path }

// Context returns the caller-supplied context value.
func (o *Observation) Context() interface{} { return o.context }

// IsFreed reports whether Free has already been called.
func (o *Observation) IsFreed() bool { return o.freed }

// registeredKey is the session observation-registry key for this
// observation's (clientID, path) pair.
func (o *Observation) registeredKey() string { return o.clientID + "|" + o.path.String() }

// addToOperation links this observation into op (an Observe operation's
// add or cancel list). Adding the same observation to the same operation
// twice is rejected per spec.md §4.7 ("Adding a duplicate observation to
// the same operation: OperationInvalid").
func (o *Observation) addToOperation(op *operationCore) error {
	if o.freed {
		return ErrObservationInvalid
	}
	if _, exists := o.inOperations[op]; exists {
		return newAPIError(ErrorKindOperationInvalid, "observation already added to this operation")
	}
	o.inOperations[op] = struct{}{}
	return nil
}

// removeFromOperation unlinks op from this observation's membership list;
// called when op is freed (spec.md §3.2 invariant 7-adjacent cleanup) or
// when the observation itself is freed.
func (o *Observation) removeFromOperation(op *operationCore) {
	delete(o.inOperations, op)
}

// Free detaches this observation from every operation it was added to and
// from its session's observation registry, if registered. Freeing while
// still registered is allowed (spec.md §3.3): the observation is quietly
// removed, and no further callbacks fire for it.
func (o *Observation) Free() {
	if o.freed {
		return
	}
	o.freed = true
	for op := range o.inOperations {
		op.detachObservation(o)
	}
	o.inOperations = nil
	if o.session != nil {
		o.session.unregisterObservation(o)
	}
	o.session = nil
}

// detachSession is called by Session.Free: it clears the back-reference
// without attempting to mutate a registry that is itself being torn down.
func (o *Observation) detachSession() {
	o.session = nil
	o.slotIndex = -1
	o.freed = true
}

// registerObservation installs obs in the session's observation slab,
// keyed by (clientID, path). Per invariant 6, a second Observe on the same
// pair replaces the first; the replaced observation is detached (no
// further callbacks fire for it) but is not itself freed, since the
// caller may still hold and free it independently.
func (s *Session) registerObservation(obs *Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := obs.registeredKey()
	if idx, ok := s.observIndex[key]; ok {
		if prev := s.observSlab[idx]; prev != nil && prev != obs {
			prev.slotIndex = -1
			prev.session = nil
		}
		s.observSlab[idx] = obs
		obs.slotIndex = idx
		obs.session = s
		return
	}
	idx := -1
	for i, slot := range s.observSlab {
		if slot == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = len(s.observSlab)
		s.observSlab = append(s.observSlab, nil)
	}
	s.observSlab[idx] = obs
	if s.observIndex == nil {
		s.observIndex = make(map[string]int)
	}
	s.observIndex[key] = idx
	obs.slotIndex = idx
	obs.session = s
}

// unregisterObservation removes obs from the session's observation slab,
// if it is currently the occupant of its slot (spec.md §9(b): "Cancelling
// an observation that was never registered returns Success").
func (s *Session) unregisterObservation(obs *Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obs.slotIndex < 0 || obs.slotIndex >= len(s.observSlab) {
		return
	}
	if s.observSlab[obs.slotIndex] != obs {
		return
	}
	s.observSlab[obs.slotIndex] = nil
	delete(s.observIndex, obs.registeredKey())
	obs.slotIndex = -1
}

// observationsForPath returns every registered observation for clientID
// whose path equals path or an ancestor of path (spec.md §4.8: "the
// session's observation registry is consulted for observations whose
// paths intersect the delivered tree"), nearest ancestor first.
func (s *Session) observationsForPath(clientID string, path Path) []*Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Observation
	candidate := path
	for {
		if idx, ok := s.observIndex[clientID+"|"+candidate.String()]; ok {
			if obs := s.observSlab[idx]; obs != nil {
				out = append(out, obs)
			}
		}
		parent, ok := candidate.Parent()
		if !ok {
			break
		}
		candidate = parent
	}
	return out
}
