package awaserver

import (
	"encoding/xml"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon is a minimal stand-in for the server daemon: it answers one
// IPC request at a time on a UDP socket via handle, and can push
// unsolicited Notification datagrams to the last client that reached it.
// It lets the scenario tests below drive a real Session/transport/operation
// round trip without a real daemon binary.
type fakeDaemon struct {
	conn   *net.UDPConn
	handle func(req *wireDoc) *wireDoc

	mu         sync.Mutex
	clientAddr *net.UDPAddr
}

func startFakeDaemon(t *testing.T, handle func(req *wireDoc) *wireDoc) *fakeDaemon {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	d := &fakeDaemon{conn: conn, handle: handle}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, maxDatagramSize)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req := &wireDoc{}
			if err := xml.Unmarshal(buf[:n], req); err != nil {
				continue
			}
			d.mu.Lock()
			d.clientAddr = addr
			d.mu.Unlock()

			resp := d.handle(req)
			if resp == nil {
				continue
			}
			raw, err := xml.Marshal(resp)
			if err != nil {
				continue
			}
			conn.WriteToUDP(raw, addr)
		}
	}()
	return d
}

func (d *fakeDaemon) addr() string { return d.conn.LocalAddr().String() }

// push sends doc unsolicited to the last client address observed, as the
// daemon does for Notifications (spec.md §4.5/§4.8).
func (d *fakeDaemon) push(doc *wireDoc) {
	d.mu.Lock()
	addr := d.clientAddr
	d.mu.Unlock()
	if addr == nil {
		return
	}
	raw, err := xml.Marshal(doc)
	if err != nil {
		return
	}
	d.conn.WriteToUDP(raw, addr)
}

var xmlNameResponse = xml.Name{Local: string(messageTypeResponse)}
var xmlNameNotification = xml.Name{Local: string(messageTypeNotification)}

func emptyResponse(req *wireDoc) *wireDoc {
	return &wireDoc{XMLName: xmlNameResponse, Type: req.Type, SessionID: req.SessionID, MessageID: req.MessageID}
}

// pollUntil drains Process/DispatchCallbacks on the test's own goroutine
// until done reports true or a deadline passes. Unlike require.Eventually,
// this never calls a fatal assertion off the test goroutine.
func pollUntil(t *testing.T, session *Session, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, session.Process(100*time.Millisecond))
		require.NoError(t, session.DispatchCallbacks())
		if done() {
			return
		}
	}
	t.Fatal("condition not met before deadline")
}

func dialScenarioSession(t *testing.T, addr string) *Session {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)
	session := NewSession(SessionConfig{IPCAddress: host, IPCPort: portNum, Logger: NewDiscardLogger()})
	require.NoError(t, session.Connect())
	t.Cleanup(session.Free)
	return session
}

// TestScenarioListClientsNoneConnected covers end-to-end scenario 1:
// ListClients against a daemon with no registered clients returns an empty
// client set without error.
func TestScenarioListClientsNoneConnected(t *testing.T) {
	daemon := startFakeDaemon(t, func(req *wireDoc) *wireDoc {
		switch req.Type {
		case subtypeConnect:
			return emptyResponse(req)
		case subtypeListClients:
			resp := emptyResponse(req)
			resp.Content = &wireContentXML{Clients: &wireClientsXML{}}
			return resp
		}
		return emptyResponse(req)
	})

	session := dialScenarioSession(t, daemon.addr())
	op := NewListClientsOperation(session)
	require.NoError(t, op.Perform(2*time.Second))
	resp, ok := op.Response()
	require.True(t, ok)
	assert.Empty(t, resp.ClientIDs())
}

// TestScenarioRegisterThenList covers end-to-end scenario 2: a client
// registration notification makes the client visible to a subsequent
// ListClients.
func TestScenarioRegisterThenList(t *testing.T) {
	registered := false
	daemon := startFakeDaemon(t, func(req *wireDoc) *wireDoc {
		switch req.Type {
		case subtypeConnect:
			return emptyResponse(req)
		case subtypeListClients:
			resp := emptyResponse(req)
			if registered {
				resp.Content = &wireContentXML{Clients: clientsWithEntity("client1", "/3/0")}
			} else {
				resp.Content = &wireContentXML{Clients: &wireClientsXML{}}
			}
			return resp
		}
		return emptyResponse(req)
	})

	session := dialScenarioSession(t, daemon.addr())

	var gotRegister *ClientRegisterEvent
	session.SetClientRegisterCallback(func(e *ClientRegisterEvent) { gotRegister = e })

	registered = true
	daemon.push(&wireDoc{
		XMLName:   xmlNameNotification,
		Type:      subtypeClientRegister,
		SessionID: session.ID(),
		Content:   &wireContentXML{Clients: clientsWithEntity("client1", "/3/0")},
	})

	pollUntil(t, session, func() bool { return gotRegister != nil })

	require.NotNil(t, gotRegister)
	assert.Equal(t, []string{"client1"}, gotRegister.ClientIDs())
	assert.Equal(t, []Path{mustParsePath(t, "/3/0")}, gotRegister.RegisteredEntities("client1"))

	op := NewListClientsOperation(session)
	require.NoError(t, op.Perform(2*time.Second))
	resp, ok := op.Response()
	require.True(t, ok)
	assert.Equal(t, []string{"client1"}, resp.ClientIDs())
	assert.Equal(t, []Path{mustParsePath(t, "/3/0")}, resp.RegisteredEntities("client1"))
}

func clientsWithEntity(clientID, path string) *wireClientsXML {
	p, _ := ParsePath(path)
	return &wireClientsXML{Client: []*wireClientXML{
		{
			ID: clientID,
			Objects: &wireObjectsXML{Object: []*wireObjectXML{
				{
					ID: idString(p.ObjectID()),
					Instance: []*wireInstanceXML{
						{ID: idString(func() uint32 { i, _ := p.InstanceID(); return i }())},
					},
				},
			}},
		},
	}}
}

// TestScenarioDefineThenReadDefault covers end-to-end scenario 3: defining
// a custom object registers it locally, after which a Read of a resource
// at that object returns the daemon's default-valued reply decoded against
// the newly learned resource type.
func TestScenarioDefineThenReadDefault(t *testing.T) {
	daemon := startFakeDaemon(t, func(req *wireDoc) *wireDoc {
		switch req.Type {
		case subtypeConnect:
			return emptyResponse(req)
		case subtypeDefine:
			resp := emptyResponse(req)
			resp.Content = &wireContentXML{Definitions: &objectDefinitionsXML{
				Objects: []*objectDefXML{{ObjectID: "10000"}},
			}}
			return resp
		case subtypeRead:
			resp := emptyResponse(req)
			resp.Content = &wireContentXML{Clients: &wireClientsXML{Client: []*wireClientXML{
				{
					ID: "client1",
					Objects: &wireObjectsXML{Object: []*wireObjectXML{
						{ID: "10000", Instance: []*wireInstanceXML{
							{ID: "0", Resource: []*wireResourceXML{
								{ID: "0", Value: []*wireValueXML{{Text: "42"}}},
							}},
						}},
					}},
				},
			}}}
			return resp
		}
		return emptyResponse(req)
	})

	session := dialScenarioSession(t, daemon.addr())

	defOp := NewDefineOperation(session)
	defOp.Add(sampleDefinition(10000, 42))
	require.NoError(t, defOp.Perform(2 * time.Second))
	assert.True(t, session.IsObjectDefined(10000))

	readOp := NewReadOperation(session)
	require.NoError(t, readOp.AddPath("client1", mustParsePath(t, "/10000/0/0")))
	require.NoError(t, readOp.Perform(2*time.Second))
	resp, ok := readOp.Response()
	require.True(t, ok)
	v, ok := resp.ValueAsInteger("client1", mustParsePath(t, "/10000/0/0"))
	require.True(t, ok)
	assert.Equal(t, int64(42), v)
}

// TestScenarioWriteThenReadInteger covers end-to-end scenario 4 for the
// Integer kind: a value written to a client is read back unchanged, against
// a daemon that actually stores what it is sent.
func TestScenarioWriteThenReadInteger(t *testing.T) {
	var mu sync.Mutex
	store := map[string]string{} // path -> wire-encoded value

	daemon := startFakeDaemon(t, func(req *wireDoc) *wireDoc {
		switch req.Type {
		case subtypeConnect:
			return emptyResponse(req)
		case subtypeWrite:
			mu.Lock()
			if req.Content != nil && req.Content.Clients != nil {
				for _, c := range req.Content.Clients.Client {
					for _, o := range c.Objects.Object {
						for _, i := range o.Instance {
							for _, r := range i.Resource {
								if len(r.Value) > 0 {
									store[o.ID+"/"+i.ID+"/"+r.ID] = r.Value[0].Text
								}
							}
						}
					}
				}
			}
			mu.Unlock()
			return emptyResponse(req)
		case subtypeRead:
			resp := emptyResponse(req)
			mu.Lock()
			wire, ok := store["10000/0/0"]
			mu.Unlock()
			if !ok {
				return resp
			}
			resp.Content = &wireContentXML{Clients: &wireClientsXML{Client: []*wireClientXML{
				{
					ID: "client1",
					Objects: &wireObjectsXML{Object: []*wireObjectXML{
						{ID: "10000", Instance: []*wireInstanceXML{
							{ID: "0", Resource: []*wireResourceXML{
								{ID: "0", Value: []*wireValueXML{{Text: wire}}},
							}},
						}},
					}},
				},
			}}}
			return resp
		}
		return emptyResponse(req)
	})

	session := dialScenarioSession(t, daemon.addr())
	defOp := NewDefineOperation(session)
	defOp.Add(sampleDefinition(10000, 0))
	require.NoError(t, defOp.Perform(2 * time.Second))

	writeOp := NewWriteOperation(session, "client1", WriteModeReplace)
	require.NoError(t, writeOp.AddValueAsInteger(mustParsePath(t, "/10000/0/0"), 99))
	require.NoError(t, writeOp.Perform(2*time.Second))

	readOp := NewReadOperation(session)
	require.NoError(t, readOp.AddPath("client1", mustParsePath(t, "/10000/0/0")))
	require.NoError(t, readOp.Perform(2*time.Second))
	resp, ok := readOp.Response()
	require.True(t, ok)
	v, ok := resp.ValueAsInteger("client1", mustParsePath(t, "/10000/0/0"))
	require.True(t, ok)
	assert.Equal(t, int64(99), v, "the value read back must match the value just written")
}

// TestScenarioExecuteNonExecutable covers end-to-end scenario 5: executing
// a resource the daemon rejects as non-executable surfaces ErrResponse at
// the top level and BadRequest in the per-path result (spec.md: Execute on
// a non-executable resource is BadRequest; MethodNotAllowed is Delete's
// non-instance-path code, not Execute's).
func TestScenarioExecuteNonExecutable(t *testing.T) {
	daemon := startFakeDaemon(t, func(req *wireDoc) *wireDoc {
		switch req.Type {
		case subtypeConnect:
			return emptyResponse(req)
		case subtypeExecute:
			resp := emptyResponse(req)
			resp.Content = &wireContentXML{Clients: &wireClientsXML{Client: []*wireClientXML{
				{
					ID: "client1",
					Objects: &wireObjectsXML{Object: []*wireObjectXML{
						{ID: "10000", Instance: []*wireInstanceXML{
							{ID: "0", Resource: []*wireResourceXML{
								{ID: "0", Result: &wireResultXML{
									Error:     errorKindNames[ErrorKindLWM2MError],
									LWM2MCode: lwm2mCodeNames[LWM2MErrorBadRequest],
								}},
							}},
						}},
					}},
				},
			}}}
			return resp
		}
		return emptyResponse(req)
	})

	session := dialScenarioSession(t, daemon.addr())
	op := NewExecuteOperation(session)
	require.NoError(t, op.AddPath("client1", mustParsePath(t, "/10000/0/0"), nil))

	err := op.Perform(2 * time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResponse))

	resp, ok := op.Response()
	require.True(t, ok)
	result := resp.Result("client1", mustParsePath(t, "/10000/0/0"))
	assert.Equal(t, ErrorKindLWM2MError, result.Error)
	assert.Equal(t, LWM2MErrorBadRequest, result.LWM2MCode)
}

// TestScenarioObserveThenNotify covers end-to-end scenario 6: after a
// successful Observe, a pushed notification invokes the registered
// callback with the changed value.
func TestScenarioObserveThenNotify(t *testing.T) {
	daemon := startFakeDaemon(t, func(req *wireDoc) *wireDoc {
		resp := emptyResponse(req)
		if req.Type == subtypeDefine {
			resp.Content = &wireContentXML{Definitions: &objectDefinitionsXML{
				Objects: []*objectDefXML{{ObjectID: "10000"}},
			}}
		}
		if req.Type == subtypeObserve {
			resp.Content = &wireContentXML{Clients: &wireClientsXML{Client: []*wireClientXML{
				{
					ID: "client1",
					Objects: &wireObjectsXML{Object: []*wireObjectXML{
						{ID: "10000", Instance: []*wireInstanceXML{
							{ID: "0", Resource: []*wireResourceXML{{ID: "0"}}},
						}},
					}},
				},
			}}}
		}
		return resp
	})

	session := dialScenarioSession(t, daemon.addr())

	defOp := NewDefineOperation(session)
	defOp.Add(sampleDefinition(10000, 0))
	require.NoError(t, defOp.Perform(2*time.Second))

	var delivered *ChangeSet
	obs := NewObservation("client1", mustParsePath(t, "/10000/0/0"), func(cs *ChangeSet) { delivered = cs }, nil)

	op := NewObserveOperation(session)
	require.NoError(t, op.AddObservation(obs))
	require.NoError(t, op.Perform(2*time.Second))

	daemon.push(&wireDoc{
		XMLName:   xmlNameNotification,
		Type:      subtypeNotifyObserve,
		SessionID: session.ID(),
		Content: &wireContentXML{Clients: &wireClientsXML{Client: []*wireClientXML{
			{
				ID: "client1",
				Objects: &wireObjectsXML{Object: []*wireObjectXML{
					{ID: "10000", Instance: []*wireInstanceXML{
						{ID: "0", Resource: []*wireResourceXML{
							{ID: "0", Change: "ResourceModified", Value: []*wireValueXML{{Text: "7"}}},
						}},
					}},
				}},
			},
		}}},
	})

	pollUntil(t, session, func() bool { return delivered != nil })

	v, ok := delivered.Value(mustParsePath(t, "/10000/0/0"))
	require.True(t, ok)
	n, _ := v.AsInteger()
	assert.Equal(t, int64(7), n)
}
