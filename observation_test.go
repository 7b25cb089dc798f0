package awaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestObservationCancellationStopsCallbacks covers invariant 7: after a
// successful cancel, no further callbacks fire for that (clientID, path)
// on the session.
func TestObservationCancellationStopsCallbacks(t *testing.T) {
	session := newTestSession()
	path := mustParsePath(t, "/3/0/15")

	var fired int
	obs := NewObservation("client1", path, func(*ChangeSet) { fired++ }, nil)
	session.registerObservation(obs)

	matches := session.observationsForPath("client1", path)
	require.Len(t, matches, 1)
	assert.Same(t, obs, matches[0])

	session.unregisterObservation(obs)
	assert.Empty(t, session.observationsForPath("client1", path))
}

// TestUnregisterUnknownObservationIsNoop covers Open Question (b): cancelling
// an observation that was never registered is a no-op (the caller's Perform
// still reports Success; here we only check the registry is untouched).
func TestUnregisterUnknownObservationIsNoop(t *testing.T) {
	session := newTestSession()
	obs := NewObservation("client1", mustParsePath(t, "/3/0/15"), nil, nil)
	assert.NotPanics(t, func() { session.unregisterObservation(obs) })
}

// TestRegisterObservationReplacesPriorOnSameKey covers invariant 6: a
// second Observe on the same (clientID, path) replaces the first, which no
// longer receives callbacks.
func TestRegisterObservationReplacesPriorOnSameKey(t *testing.T) {
	session := newTestSession()
	path := mustParsePath(t, "/3/0/15")

	first := NewObservation("client1", path, nil, nil)
	session.registerObservation(first)

	second := NewObservation("client1", path, nil, nil)
	session.registerObservation(second)

	matches := session.observationsForPath("client1", path)
	require.Len(t, matches, 1)
	assert.Same(t, second, matches[0])
	assert.Equal(t, -1, first.slotIndex, "the replaced observation must be detached from the registry")
}

// TestObservationFreeDetachesFromSession covers Observation.Free's
// registry-cleanup path.
func TestObservationFreeDetachesFromSession(t *testing.T) {
	session := newTestSession()
	path := mustParsePath(t, "/3/0/15")
	obs := NewObservation("client1", path, nil, nil)
	session.registerObservation(obs)

	obs.Free()

	assert.True(t, obs.IsFreed())
	assert.Empty(t, session.observationsForPath("client1", path))
	assert.NotPanics(t, obs.Free, "Free must be idempotent")
}

// TestObservationsForPathMatchesNearestAncestor covers the ancestor-walk
// used by dispatchObservationNotification.
func TestObservationsForPathMatchesNearestAncestor(t *testing.T) {
	session := newTestSession()
	instanceObs := NewObservation("client1", mustParsePath(t, "/3/0"), nil, nil)
	session.registerObservation(instanceObs)

	matches := session.observationsForPath("client1", mustParsePath(t, "/3/0/15"))
	require.Len(t, matches, 1)
	assert.Same(t, instanceObs, matches[0])
}
