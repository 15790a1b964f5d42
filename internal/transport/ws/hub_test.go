package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToConnDeliversEnvelope(t *testing.T) {
	hub := NewHub()
	conn := &Connection{ID: "conn-1", Send: make(chan []byte, 1)}
	hub.add(conn)

	hub.SendToConn("conn-1", "game:state-update", map[string]string{"roomCode": "ABCD"})

	select {
	case data := <-conn.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, "game:state-update", env.Type)
		assert.JSONEq(t, `{"roomCode":"ABCD"}`, string(env.Payload))
	default:
		t.Fatal("expected a delivered message")
	}
}

func TestSendToConnUnknownIDDropped(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.SendToConn("nobody", "game:error", map[string]string{"message": "x"})
	})
}

func TestSendToConnFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	conn := &Connection{ID: "conn-1", Send: make(chan []byte, 1)}
	hub.add(conn)

	hub.SendToConn("conn-1", "a", nil)
	done := make(chan struct{})
	go func() {
		hub.SendToConn("conn-1", "b", nil)
		close(done)
	}()
	<-done // must not block even with the buffer full
	assert.Len(t, conn.Send, 1)
}

func TestSendToConnConcurrentWithRemove(t *testing.T) {
	hub := NewHub()

	// Disconnects race against fanouts from the outcome goroutine and timer
	// callbacks; a send must never land on a channel remove already closed.
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				hub.SendToConn("conn-1", "game:state-update", nil)
			}
		}()
	}
	for i := 0; i < 500; i++ {
		conn := &Connection{ID: "conn-1", Send: make(chan []byte, 1)}
		hub.add(conn)
		hub.remove(conn)
	}
	wg.Wait()
}

func TestRemoveClosesSendOnce(t *testing.T) {
	hub := NewHub()
	conn := &Connection{ID: "conn-1", Send: make(chan []byte, 1)}
	hub.add(conn)

	hub.remove(conn)
	assert.NotPanics(t, func() { hub.remove(conn) })

	_, open := <-conn.Send
	assert.False(t, open)
}
