package awaserver

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentUDPListener opens a UDP socket that reads and discards every
// datagram it receives, never replying, so dialTransport's peer never
// produces a Response.
func silentUDPListener(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, maxDatagramSize)
		for {
			if _, _, err := conn.ReadFromUDP(buf); err != nil {
				return
			}
		}
	}()
	return conn.LocalAddr().(*net.UDPAddr)
}

// TestSendRequestAwaitResponseTimeoutBound covers invariant 8: Perform (here
// exercised at the transport's sendRequestAwaitResponse layer, since it is
// the method that actually blocks on the timer) returns within t ± epsilon
// when the daemon never replies.
func TestSendRequestAwaitResponseTimeoutBound(t *testing.T) {
	addr := silentUDPListener(t)
	tr, err := dialTransport(addr.String(), "session1", nil)
	require.NoError(t, err)
	t.Cleanup(func() { tr.close() })

	doc := &wireDoc{
		XMLName:   xmlNameRequest,
		Type:      subtypeRead,
		SessionID: "session1",
		MessageID: formatMessageID(tr.nextMessageID()),
	}

	const budget = 150 * time.Millisecond
	const epsilon = 100 * time.Millisecond

	start := time.Now()
	_, err = tr.sendRequestAwaitResponse(doc, budget)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.GreaterOrEqual(t, elapsed, budget, "must not return before the budget elapses")
	assert.Less(t, elapsed, budget+epsilon, "must not overrun the budget by more than epsilon")
}

// TestSendRequestAwaitResponseZeroTimeoutReturnsImmediately covers the
// "t = 0 returns immediately with Timeout unless a response is already
// buffered" half of invariant 8.
func TestSendRequestAwaitResponseZeroTimeoutReturnsImmediately(t *testing.T) {
	addr := silentUDPListener(t)
	tr, err := dialTransport(addr.String(), "session1", nil)
	require.NoError(t, err)
	t.Cleanup(func() { tr.close() })

	doc := &wireDoc{
		XMLName:   xmlNameRequest,
		Type:      subtypeRead,
		SessionID: "session1",
		MessageID: formatMessageID(tr.nextMessageID()),
	}

	start := time.Now()
	_, err = tr.sendRequestAwaitResponse(doc, 0)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, elapsed, 100*time.Millisecond)
}
