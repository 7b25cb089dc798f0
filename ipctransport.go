package awaserver

import (
	"encoding/xml"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/errclass"
)

// maxDatagramSize bounds a single IPC read; the framing is one message per
// UDP datagram (spec.md §4.5), so any single Read is a full message.
const maxDatagramSize = 65507

// pendingReply is what sendRequestAwaitResponse blocks on: the transport's
// read loop delivers the matching Response here.
type pendingReply struct {
	replyCh chan *wireDoc
}

// transport is a connected UDP socket to the daemon, framed one XML
// document per datagram, correlated by (sessionID, messageID). Its shape
// mirrors the teacher's Coap struct (coap.go): a net.Conn, a
// monotonically increasing message ID, a map from in-flight message ID to
// a completion channel, and a background goroutine that demultiplexes
// incoming datagrams between that map and a side queue (there,
// notifications bound for Lwm2m.ReceiveMessage; here, the session's
// notification queue).
type transport struct {
	conn      net.Conn
	sessionID string
	log       *Logger

	mu        sync.Mutex
	nextMsgID uint32
	pending   map[uint32]*pendingReply
	closed    bool

	notifications chan *wireDoc
	stopCh        chan struct{}
	doneCh        chan struct{}
}

// dialTransport connects a UDP socket to addr (host:port) and starts the
// background read loop.
func dialTransport(addr string, sessionID string, log *Logger) (*transport, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, newAPIError(ErrorKindIPCError, "dial: "+err.Error())
	}
	t := &transport{
		conn:          conn,
		sessionID:     sessionID,
		log:           loggerOrDefault(log),
		pending:       make(map[uint32]*pendingReply),
		notifications: make(chan *wireDoc, 256),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// nextMessageID returns the next per-session monotonically increasing
// message ID, chosen by the client side per spec.md §4.5.
func (t *transport) nextMessageID() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextMsgID
	t.nextMsgID++
	return id
}

// sendRequestAwaitResponse serialises and sends doc, then blocks until a
// Response with a matching (sessionID, messageID) arrives or timeout
// elapses. Notifications observed while waiting are enqueued, not
// returned. No retransmission is attempted (spec.md §4.5: "the transport
// is loopback-only, and the daemon is authoritative").
func (t *transport) sendRequestAwaitResponse(doc *wireDoc, timeout time.Duration) (*wireDoc, error) {
	msgID := parseMessageID(doc.MessageID)
	reply := &pendingReply{replyCh: make(chan *wireDoc, 1)}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, newAPIError(ErrorKindSessionNotConnected, "transport closed")
	}
	t.pending[msgID] = reply
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, msgID)
		t.mu.Unlock()
	}()

	raw, err := xml.Marshal(doc)
	if err != nil {
		return nil, newAPIError(ErrorKindIPCError, "marshal request: "+err.Error())
	}
	if _, err := t.conn.Write(raw); err != nil {
		return nil, classifyTransportError(err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-reply.replyCh:
		return resp, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-t.doneCh:
		return nil, newAPIError(ErrorKindIPCError, "transport closed while waiting")
	}
}

// send transmits doc without waiting for a response (used for best-effort
// Disconnect).
func (t *transport) send(doc *wireDoc) error {
	raw, err := xml.Marshal(doc)
	if err != nil {
		return newAPIError(ErrorKindIPCError, "marshal: "+err.Error())
	}
	if _, err := t.conn.Write(raw); err != nil {
		return classifyTransportError(err)
	}
	return nil
}

// notificationQueue returns the channel notifications are queued on for
// the session to drain.
func (t *transport) notificationQueue() <-chan *wireDoc { return t.notifications }

// readLoop runs on its own goroutine for the lifetime of the transport: it
// parses each inbound datagram and either completes a pending request
// (Response, matching session+messageID) or enqueues a Notification. This
// is the transport's equivalent of the teacher's ReadCoapMessage
// (coap.go): one receive goroutine, demultiplexed by ID, with a stop
// channel for clean shutdown.
func (t *transport) readLoop() {
	defer close(t.doneCh)
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}
		n, err := t.conn.Read(buf)
		if err != nil {
			if isClosedConnError(err) {
				return
			}
			continue
		}
		doc := &wireDoc{}
		if err := xml.Unmarshal(buf[:n], doc); err != nil {
			t.log.Warning("dropping malformed IPC datagram", "error", err)
			continue
		}
		if doc.SessionID != "" && doc.SessionID != t.sessionID {
			continue
		}
		switch doc.XMLName.Local {
		case string(messageTypeResponse):
			t.deliverResponse(doc)
		case string(messageTypeNotification):
			select {
			case t.notifications <- doc:
			default:
				t.log.Warning("notification queue full, dropping")
			}
		}
	}
}

func (t *transport) deliverResponse(doc *wireDoc) {
	msgID := parseMessageID(doc.MessageID)
	t.mu.Lock()
	reply, ok := t.pending[msgID]
	t.mu.Unlock()
	if !ok {
		return
	}
	select {
	case reply.replyCh <- doc:
	default:
	}
}

// drainNotifications performs a bounded-block poll of the notification
// queue: it appends whatever is already queued (or arrives within
// timeout) and returns without blocking further once the channel is
// empty.
func (t *transport) drainNotifications(timeout time.Duration) []*wireDoc {
	var out []*wireDoc
	deadline := time.After(timeout)
	for {
		select {
		case doc := <-t.notifications:
			out = append(out, doc)
		case <-deadline:
			return out
		default:
			if len(out) > 0 {
				return out
			}
			select {
			case doc := <-t.notifications:
				out = append(out, doc)
			case <-deadline:
				return out
			}
		}
	}
}

// close stops the read loop and closes the socket. Idempotent.
func (t *transport) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()
	close(t.stopCh)
	t.conn.Close()
	<-t.doneCh
}

func isClosedConnError(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

// classifyTransportError turns a raw net error into the spec's error
// taxonomy using github.com/bassosimone/errclass, the same classifier the
// wider example pack uses to turn network errors into short descriptive
// labels (see _examples/bassosimone-nop/errclassifier.go): deadline-class
// errors become ErrTimeout, anything else becomes IPCError.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errclass.New(err) == errclass.ETIMEDOUT {
		return ErrTimeout
	}
	return newAPIError(ErrorKindIPCError, err.Error())
}
