package awaserver

import (
	"encoding/xml"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionConfig configures where and how a Session reaches the daemon.
// IPCAddress defaults to loopback and IPCPort to the example port used
// throughout spec.md §6 (54321); both are overridable per spec.md
// "Defaults".
type SessionConfig struct {
	IPCAddress     string
	IPCPort        int
	ConnectTimeout time.Duration
	DefaultTimeout time.Duration
	Logger         *Logger
}

// DefaultIPCAddress is the daemon's default loopback address.
const DefaultIPCAddress = "127.0.0.1"

// DefaultIPCPort is the example server IPC port from spec.md §6.
const DefaultIPCPort = 54321

// DefaultConnectTimeout and DefaultOperationTimeout are applied when a
// SessionConfig leaves the corresponding field zero.
const (
	DefaultConnectTimeout  = 10 * time.Second
	DefaultOperationTimeout = 10 * time.Second
)

func (c SessionConfig) withDefaults() SessionConfig {
	if c.IPCAddress == "" {
		c.IPCAddress = DefaultIPCAddress
	}
	if c.IPCPort == 0 {
		c.IPCPort = DefaultIPCPort
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = DefaultOperationTimeout
	}
	return c
}

// sessionState is the lifecycle position of a Session: New -> Configured
// -> Connected -> Disconnected -> Freed (spec.md §3.3).
type sessionState int32

const (
	sessionStateNew sessionState = iota
	sessionStateConfigured
	sessionStateConnected
	sessionStateDisconnected
	sessionStateFreed
)

// Session is a Management Application's handle to the daemon: it owns the
// definition registry, the IPC transport, in-flight operations, the
// observation slab and the server-event callback table. Session is not
// safe for concurrent use from multiple goroutines (spec.md §5): the
// caller must serialise its own calls.
type Session struct {
	id    string
	state atomic.Int32
	log   *Logger

	config    SessionConfig
	transport *transport
	registry  *DefinitionRegistry

	mu          sync.Mutex
	operations  map[*operationCore]struct{}
	observSlab  []*Observation // index-addressed slab; nil entries are free
	observIndex map[string]int // "clientID|path" -> slab index

	notifyQueue []*wireDoc

	onRegister   func(*ClientRegisterEvent)
	onUpdate     func(*ClientUpdateEvent)
	onDeregister func(*ClientDeregisterEvent)

	dispatching bool // re-entrancy guard while DispatchCallbacks runs
}

// NewSession constructs a Session, already in the Configured state (the
// config is taken at construction). No I/O is performed
// (spec.md §3.3: "New requires no I/O").
func NewSession(config SessionConfig) *Session {
	s := &Session{
		id:          uuid.NewString(),
		config:      config.withDefaults(),
		registry:    NewDefinitionRegistry(),
		operations:  make(map[*operationCore]struct{}),
		observIndex: make(map[string]int),
	}
	s.log = loggerOrDefault(config.Logger)
	s.state.Store(int32(sessionStateConfigured))
	return s
}

// ID returns the session's generated identifier, echoed as the IPC
// SessionID attribute on every request this session sends.
func (s *Session) ID() string { return s.id }

func (s *Session) currentState() sessionState { return sessionState(s.state.Load()) }

// checkUsable returns ErrSessionInvalid if the session has been freed.
func (s *Session) checkUsable() error {
	if s.currentState() == sessionStateFreed {
		return ErrSessionInvalid
	}
	return nil
}

// checkConnected returns ErrSessionNotConnected unless the session is
// currently connected.
func (s *Session) checkConnected() error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	if s.currentState() != sessionStateConnected {
		return ErrSessionNotConnected
	}
	return nil
}

// Connect dials the daemon's IPC endpoint, sends a Connect request and
// populates the definition registry from its reply. On success the
// session moves to Connected.
func (s *Session) Connect() error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	addr := s.config.IPCAddress + ":" + formatPort(s.config.IPCPort)
	t, err := dialTransport(addr, s.id, s.log)
	if err != nil {
		return err
	}
	s.transport = t

	doc := &wireDoc{
		XMLName:   xmlNameRequest,
		Type:      subtypeConnect,
		SessionID: s.id,
		MessageID: formatMessageID(t.nextMessageID()),
	}
	resp, err := t.sendRequestAwaitResponse(doc, s.config.ConnectTimeout)
	if err != nil {
		t.close()
		s.transport = nil
		return err
	}
	if resp.Content != nil && resp.Content.Definitions != nil {
		defs, err := unmarshalDefsDoc(resp.Content.Definitions)
		if err != nil {
			t.close()
			s.transport = nil
			return err
		}
		if err := s.registry.refreshFrom(defs); err != nil {
			t.close()
			s.transport = nil
			return err
		}
	}
	s.state.Store(int32(sessionStateConnected))
	s.log.Verbose("session connected", "sessionID", s.id, "address", addr)
	return nil
}

func unmarshalDefsDoc(doc *objectDefinitionsXML) ([]*ObjectDefinition, error) {
	defs := make([]*ObjectDefinition, 0, len(doc.Objects))
	for _, x := range doc.Objects {
		def, err := objectDefFromXML(x)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Disconnect sends a best-effort Disconnect request and tears down the
// transport. Idempotent.
func (s *Session) Disconnect() {
	if s.currentState() != sessionStateConnected {
		return
	}
	if s.transport != nil {
		doc := &wireDoc{
			XMLName:   xmlNameRequest,
			Type:      subtypeDisconnect,
			SessionID: s.id,
			MessageID: formatMessageID(s.transport.nextMessageID()),
		}
		_ = s.transport.send(doc)
		s.transport.close()
		s.transport = nil
	}
	s.state.Store(int32(sessionStateDisconnected))
	s.log.Verbose("session disconnected", "sessionID", s.id)
}

// Free invalidates the session and every operation/observation it owns.
// If still connected, Disconnect is called first. Safe to call more than
// once.
func (s *Session) Free() {
	if s.currentState() == sessionStateFreed {
		return
	}
	s.Disconnect()
	s.mu.Lock()
	ops := make([]*operationCore, 0, len(s.operations))
	for op := range s.operations {
		ops = append(ops, op)
	}
	s.operations = nil
	for _, obs := range s.observSlab {
		if obs != nil {
			obs.detachSession()
		}
	}
	s.observSlab = nil
	s.observIndex = nil
	s.mu.Unlock()

	for _, op := range ops {
		op.invalidate()
	}
	s.state.Store(int32(sessionStateFreed))
}

// trackOperation registers core so Session.Free can invalidate it later.
func (s *Session) trackOperation(core *operationCore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.operations == nil {
		s.operations = make(map[*operationCore]struct{})
	}
	s.operations[core] = struct{}{}
}

// untrackOperation removes core from the session's live-operation set,
// called when the operation frees itself independently of Session.Free.
func (s *Session) untrackOperation(core *operationCore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.operations != nil {
		delete(s.operations, core)
	}
}

// IsObjectDefined reports whether objectID has a registered definition.
func (s *Session) IsObjectDefined(objectID uint32) bool {
	return s.registry.IsDefined(objectID)
}

// DefinedObjectIDs iterates the object IDs currently registered.
func (s *Session) DefinedObjectIDs() []uint32 {
	return s.registry.ObjectIDs()
}

// ObjectDefinition looks up a defined object's definition.
func (s *Session) ObjectDefinition(objectID uint32) (*ObjectDefinition, bool) {
	return s.registry.Lookup(objectID)
}

// PathToIDs is a convenience that parses a path string and reports its IDs;
// a wrapper over ParsePath for callers that don't want to hold a Path value.
func (s *Session) PathToIDs(path string) (objectID, instanceID, resourceID uint32, shape PathShape, err error) {
	p, err := ParsePath(path)
	if err != nil {
		return 0, 0, 0, PathShapeInvalid, err
	}
	instanceID, _ = p.InstanceID()
	resourceID, _ = p.ResourceID()
	return p.ObjectID(), instanceID, resourceID, p.Shape(), nil
}

// Process drains pending notifications from the IPC transport into the
// session's internal queue. It blocks for up to timeout if nothing is
// immediately available, per spec.md §4.5/§4.6.
func (s *Session) Process(timeout time.Duration) error {
	if err := s.checkConnected(); err != nil {
		return err
	}
	docs := s.transport.drainNotifications(timeout)
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	s.notifyQueue = append(s.notifyQueue, docs...)
	s.mu.Unlock()
	return nil
}

// DispatchCallbacks drains the session's notification queue (FIFO) and
// invokes the matching observation callback or server-event handler for
// each, on the calling goroutine. Per spec.md §4.8, starting a Perform
// from inside a callback is refused with ErrOperationInvalid rather than
// deadlocking.
func (s *Session) DispatchCallbacks() error {
	if err := s.checkUsable(); err != nil {
		return err
	}
	s.mu.Lock()
	queue := s.notifyQueue
	s.notifyQueue = nil
	s.dispatching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.dispatching = false
		s.mu.Unlock()
	}()

	for _, doc := range queue {
		s.dispatchOne(doc)
	}
	return nil
}

func (s *Session) dispatchOne(doc *wireDoc) {
	switch doc.Type {
	case subtypeNotifyObserve:
		s.dispatchObservationNotification(doc)
	case subtypeClientRegister:
		s.dispatchRegister(doc)
	case subtypeClientUpdate:
		s.dispatchUpdate(doc)
	case subtypeClientDeregister:
		s.dispatchDeregister(doc)
	}
}

// SetClientRegisterCallback sets (or, passing nil, clears) the handler
// invoked when a client registers.
func (s *Session) SetClientRegisterCallback(fn func(*ClientRegisterEvent)) { s.onRegister = fn }

// SetClientUpdateCallback sets (or clears) the handler invoked when a
// client updates its registration.
func (s *Session) SetClientUpdateCallback(fn func(*ClientUpdateEvent)) { s.onUpdate = fn }

// SetClientDeregisterCallback sets (or clears) the handler invoked when a
// client deregisters.
func (s *Session) SetClientDeregisterCallback(fn func(*ClientDeregisterEvent)) {
	s.onDeregister = fn
}

func formatPort(p int) string {
	return strconv.Itoa(p)
}

var xmlNameRequest = xml.Name{Local: string(messageTypeRequest)}
