package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestClient(h *Hub, userID int64, sendBuffer int) *Client {
	client := &Client{
		hub:    h,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		logger: zerolog.Nop(),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	return client
}

func TestBroadcastDeliversToConnectedClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := addTestClient(hub, 1, 4)

	hub.broadcastEvent(&EnrollmentEvent{Action: "approve", EnrollmentID: 7})

	select {
	case data := <-client.send:
		assert.Contains(t, string(data), `"approve"`)
	default:
		t.Fatal("expected an event in the client send buffer")
	}
	assert.Equal(t, 1, hub.ClientCount())
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	fast := addTestClient(hub, 1, 4)
	slow := addTestClient(hub, 2, 1)

	// Fill the slow client's buffer so the next broadcast cannot enqueue.
	slow.send <- []byte("backlog")

	done := make(chan struct{})
	go func() {
		hub.broadcastEvent(&EnrollmentEvent{Action: "reject", EnrollmentID: 9})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	require.Equal(t, 1, hub.ClientCount())

	// The slow client is gone and its channel closed after the backlog drains.
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)

	select {
	case data := <-fast.send:
		assert.Contains(t, string(data), `"reject"`)
	default:
		t.Fatal("fast client should still receive events")
	}
}
