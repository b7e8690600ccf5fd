package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.rooms)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := startHub(t)

	client := &Client{
		hub:      hub,
		roomCode: "HALL-A",
		send:     make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.ConnectedClients("HALL-A"))

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients("HALL-A"))
}

func TestHub_AttachAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	attached := hub.attach(&Client{hub: hub, send: make(chan []byte, 1)})

	assert.False(t, attached)
	assert.Equal(t, 0, hub.ConnectedClients(AllRooms))
}

func TestHub_Publish(t *testing.T) {
	hub := startHub(t)

	client := &Client{
		hub:      hub,
		roomCode: "HALL-A",
		send:     make(chan []byte, 10),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.Publish("HALL-A", EventRoomRecognition, map[string]string{"message": "test"})

	select {
	case msg := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventRoomRecognition, event.Type)
		assert.Equal(t, "HALL-A", event.RoomCode)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_RoomIsolation(t *testing.T) {
	hub := startHub(t)

	hallA := &Client{hub: hub, roomCode: "HALL-A", send: make(chan []byte, 10)}
	hallB := &Client{hub: hub, roomCode: "HALL-B", send: make(chan []byte, 10)}
	everything := &Client{hub: hub, roomCode: AllRooms, send: make(chan []byte, 10)}

	hub.register <- hallA
	hub.register <- hallB
	hub.register <- everything
	time.Sleep(50 * time.Millisecond)

	hub.Publish("HALL-A", EventRoomRecognition, map[string]string{"message": "only for hall A"})

	select {
	case <-hallA.send:
	case <-time.After(time.Second):
		t.Fatal("HALL-A subscriber should receive the event")
	}

	select {
	case <-everything.send:
	case <-time.After(time.Second):
		t.Fatal("all-rooms subscriber should receive the event")
	}

	select {
	case <-hallB.send:
		t.Fatal("HALL-B subscriber should not receive HALL-A events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_LogRoutesAuditEvents(t *testing.T) {
	hub := startHub(t)

	room := &Client{hub: hub, roomCode: "HALL-A", send: make(chan []byte, 10)}
	everything := &Client{hub: hub, roomCode: AllRooms, send: make(chan []byte, 10)}
	hub.register <- room
	hub.register <- everything
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, hub.Log(context.Background(), audit.Event{
		Kind:    audit.KindRecognition,
		Outcome: "no_face",
	}))

	select {
	case msg := <-everything.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventRecognition, event.Type)
	case <-time.After(time.Second):
		t.Fatal("all-rooms subscriber should receive plain recognitions")
	}

	code := "HALL-A"
	signal := "alert"
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, hub.Log(context.Background(), audit.Event{
		Kind:      audit.KindRoomRecognition,
		Outcome:   "recognized",
		RoomCode:  &code,
		Signal:    &signal,
		Timestamp: at,
	}))

	select {
	case msg := <-room.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventRoomRecognition, event.Type)
		assert.Equal(t, "HALL-A", event.RoomCode)
		assert.Equal(t, "alert", event.Signal)
		assert.True(t, at.Equal(event.Timestamp))
	case <-time.After(time.Second):
		t.Fatal("room subscriber should receive its room event")
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := startHub(t)

	slow := &Client{hub: hub, roomCode: "HALL-A", send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	hub.Publish("HALL-A", EventRoomRecognition, nil)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients("HALL-A"))
	_, open := <-slow.send
	assert.False(t, open)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, roomCode: "HALL-A", send: make(chan []byte, 1)}
	hub.register <- client
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-client.send
	assert.False(t, open)
}
