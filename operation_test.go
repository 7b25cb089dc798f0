package awaserver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	s := NewSession(SessionConfig{Logger: NewDiscardLogger()})
	s.state.Store(int32(sessionStateConnected))
	return s
}

// TestOperationIsolationOnFree covers invariant 6 (spec.md §8): freeing an
// operation invalidates all responses derived from it, and independent
// operations are unaffected.
func TestOperationIsolationOnFree(t *testing.T) {
	session := newTestSession()

	coreA := newOperationCore(session, subtypeRead)
	treeA := NewTree()
	treeA.Insert(mustParsePath(t, "/3/0/15")).SetResult(Success)
	coreA.response = &Response{op: coreA, clients: map[string]*Tree{"client1": treeA}}
	coreA.performed = true
	respA := coreA.response

	coreB := newOperationCore(session, subtypeRead)
	treeB := NewTree()
	treeB.Insert(mustParsePath(t, "/3/0/16")).SetResult(Success)
	coreB.response = &Response{op: coreB, clients: map[string]*Tree{"client1": treeB}}
	coreB.performed = true
	respB := coreB.response

	coreA.free()

	assert.Nil(t, respA.ClientIDs(), "a Response borrowed from a freed operation must report absent")
	assert.False(t, respA.HasClient("client1"))
	assert.Equal(t, ErrorKindOperationInvalid, respA.Result("client1", mustParsePath(t, "/3/0/15")).Error)

	assert.Equal(t, []string{"client1"}, respB.ClientIDs(), "an independent operation must be unaffected")
	assert.Equal(t, Success, respB.Result("client1", mustParsePath(t, "/3/0/16")))
}

// TestOperationFreeIsIdempotent covers the "Free twice" edge case implied
// by operationCore.free's idempotency guard.
func TestOperationFreeIsIdempotent(t *testing.T) {
	session := newTestSession()
	core := newOperationCore(session, subtypeRead)
	core.free()
	assert.NotPanics(t, func() { core.free() })
}

// TestNoCallbackReentry covers invariant 10: starting a Perform from
// inside a callback (session.dispatching) returns OperationInvalid.
func TestNoCallbackReentry(t *testing.T) {
	session := newTestSession()
	session.dispatching = true

	core := newOperationCore(session, subtypeRead)
	core.pathCount = 1 // otherwise the zero-paths check would fire first

	err := core.checkPerformable(time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOperationInvalid))
}

// TestPerformRejectsZeroPaths covers the "Perform with zero paths" edge
// case in spec.md §4.7.
func TestPerformRejectsZeroPaths(t *testing.T) {
	session := newTestSession()
	core := newOperationCore(session, subtypeRead)

	err := core.checkPerformable(time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOperationInvalid))
}

// TestPerformRejectsNegativeTimeout covers the negative-timeout edge case.
func TestPerformRejectsNegativeTimeout(t *testing.T) {
	session := newTestSession()
	core := newOperationCore(session, subtypeRead)
	core.pathCount = 1

	err := core.checkPerformable(-1 * time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOperationInvalid))
}

// TestPerformRejectsWhenNotConnected covers SessionNotConnected.
func TestPerformRejectsWhenNotConnected(t *testing.T) {
	session := NewSession(SessionConfig{Logger: NewDiscardLogger()}) // left in Configured state
	core := newOperationCore(session, subtypeRead)
	core.pathCount = 1

	err := core.checkPerformable(time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionNotConnected))
}

// TestPerformRejectsReperformAfterCompletion covers spec.md's "a failed
// Perform... may be freed normally but must not be re-performed": once
// performed is set, a second checkPerformable (and hence a second Perform)
// is rejected even though the operation was never freed.
func TestPerformRejectsReperformAfterCompletion(t *testing.T) {
	session := newTestSession()
	core := newOperationCore(session, subtypeRead)
	core.pathCount = 1
	core.performed = true

	err := core.checkPerformable(time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOperationInvalid))
}

// TestWriteOperationRejectsSecondClient covers singleClient enforcement.
func TestWriteOperationRejectsSecondClient(t *testing.T) {
	session := newTestSession()
	op := NewWriteOperation(session, "client1", WriteModeReplace)
	require.NoError(t, op.AddValueAsInteger(mustParsePath(t, "/10000/0/0"), 1))

	_, err := op.core.addPath("client2", mustParsePath(t, "/10000/0/0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOperationInvalid))
}
