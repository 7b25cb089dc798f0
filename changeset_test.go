package awaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationFor(clientID, changeType, value string) *wireDoc {
	return &wireDoc{
		Type: subtypeNotifyObserve,
		Content: &wireContentXML{
			Clients: &wireClientsXML{
				Client: []*wireClientXML{
					{
						ID: clientID,
						Objects: &wireObjectsXML{
							Object: []*wireObjectXML{
								{
									ID: "3",
									Instance: []*wireInstanceXML{
										{
											ID: "0",
											Resource: []*wireResourceXML{
												{
													ID:     "15",
													Change: changeType,
													Value:  []*wireValueXML{{Text: value}},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestDispatchObservationNotificationDeliversChangeSet(t *testing.T) {
	session := newTestSession()
	path := mustParsePath(t, "/3/0/15")

	var delivered *ChangeSet
	obs := NewObservation("client1", path, func(cs *ChangeSet) { delivered = cs }, nil)
	session.registerObservation(obs)

	doc := notificationFor("client1", "ResourceModified", "Pacific/Wellington")
	session.dispatchObservationNotification(doc)

	require.NotNil(t, delivered)
	assert.Equal(t, "client1", delivered.ClientID())
	changeType, ok := delivered.ChangeType(path)
	require.True(t, ok)
	assert.Equal(t, ChangeTypeResourceModified, changeType)
	v, ok := delivered.Value(path)
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "Pacific/Wellington", s)
}

func TestDispatchObservationNotificationNoMatchNoCallback(t *testing.T) {
	session := newTestSession()
	fired := false
	obs := NewObservation("client1", mustParsePath(t, "/3/0/16"), func(*ChangeSet) { fired = true }, nil)
	session.registerObservation(obs)

	doc := notificationFor("client1", "ResourceModified", "x")
	session.dispatchObservationNotification(doc)

	assert.False(t, fired, "a notification for an unobserved path must not invoke an unrelated observation's callback")
}

func TestDispatchObservationNotificationAfterCancelIsSilent(t *testing.T) {
	session := newTestSession()
	path := mustParsePath(t, "/3/0/15")
	fired := false
	obs := NewObservation("client1", path, func(*ChangeSet) { fired = true }, nil)
	session.registerObservation(obs)
	session.unregisterObservation(obs)

	doc := notificationFor("client1", "ResourceModified", "x")
	session.dispatchObservationNotification(doc)

	assert.False(t, fired, "no further callbacks fire for a cancelled observation")
}

// TestNotificationOrderMatchesDeliveryOrder covers invariant 9: callbacks
// fire in the order notifications are handed to the session, regardless of
// which paths or clients they touch.
func TestNotificationOrderMatchesDeliveryOrder(t *testing.T) {
	session := newTestSession()

	var order []string
	obsA := NewObservation("client1", mustParsePath(t, "/3/0/15"), func(cs *ChangeSet) {
		v, _ := cs.Value(mustParsePath(t, "/3/0/15"))
		s, _ := v.AsString()
		order = append(order, "A:"+s)
	}, nil)
	obsB := NewObservation("client2", mustParsePath(t, "/3/0/15"), func(cs *ChangeSet) {
		v, _ := cs.Value(mustParsePath(t, "/3/0/15"))
		s, _ := v.AsString()
		order = append(order, "B:"+s)
	}, nil)
	session.registerObservation(obsA)
	session.registerObservation(obsB)

	session.dispatchObservationNotification(notificationFor("client1", "ResourceModified", "one"))
	session.dispatchObservationNotification(notificationFor("client2", "ResourceModified", "two"))
	session.dispatchObservationNotification(notificationFor("client1", "ResourceModified", "three"))

	assert.Equal(t, []string{"A:one", "B:two", "A:three"}, order,
		"notifications must be delivered to callbacks in the order they were received from IPC")
}
