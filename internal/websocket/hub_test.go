package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "send channel closed unexpectedly")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func assertNothingQueued(t *testing.T, ch chan []byte) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubGlobalAndTargetedDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	global := NewClient(hub, nil, "")
	watcher := NewClient(hub, nil, "topic-1")
	bystander := NewClient(hub, nil, "topic-2")
	hub.Register <- global
	hub.Register <- watcher
	hub.Register <- bystander

	hub.BroadcastTo("topic-1", []byte("topic event"))
	assert.Equal(t, "topic event", string(receive(t, watcher.Send)))
	assertNothingQueued(t, watcher.Send) // exactly one copy
	assertNothingQueued(t, global.Send)
	assertNothingQueued(t, bystander.Send)

	hub.Broadcast <- []byte("global event")
	assert.Equal(t, "global event", string(receive(t, global.Send)))
	assertNothingQueued(t, watcher.Send)
	assertNothingQueued(t, bystander.Send)
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	watcher := NewClient(hub, nil, "topic-1")
	hub.Register <- watcher
	hub.Unregister <- watcher

	// The send channel is closed on unregister.
	select {
	case _, ok := <-watcher.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}

	// A message for the topic no longer reaches the gone client.
	hub.BroadcastTo("topic-1", []byte("late"))
}

// Registration, unregistration, and topic broadcasts from separate goroutines
// must not trip the race detector: the Run loop owns all client state.
func TestHubConcurrentRegistrationAndTopicBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			client := NewClient(hub, nil, "topic-1")
			hub.Register <- client
			hub.Unregister <- client
		}
	}()

	for i := 0; i < 200; i++ {
		hub.BroadcastTo("topic-1", []byte("tick"))
	}
	<-done
}
