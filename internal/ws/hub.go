// Package ws publishes recognition events to proctor dashboards over
// websockets. Subscribers of a room receive that room's events; subscribers
// of AllRooms receive every event.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/examgate/internal/audit"
)

// AllRooms is the feed key that receives every event.
const AllRooms = ""

type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.broadcastToRoom(event)
		}
	}
}

// attach hands the client to Run. It returns false once the hub has stopped.
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.rooms[client.roomCode] == nil {
		h.rooms[client.roomCode] = make(map[*Client]bool)
	}
	h.rooms[client.roomCode][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.rooms[client.roomCode], client)

	if len(h.rooms[client.roomCode]) == 0 {
		delete(h.rooms, client.roomCode)
	}

	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropLocked(client)
	}
}

func (h *Hub) broadcastToRoom(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := []map[*Client]bool{h.rooms[AllRooms]}
	if event.RoomCode != AllRooms {
		targets = append(targets, h.rooms[event.RoomCode])
	}

	for _, clients := range targets {
		for client := range clients {
			select {
			case client.send <- message:
			default:
				// Slow consumer.
				h.dropLocked(client)
			}
		}
	}
}

// Publish queues an event for roomCode. It never blocks; events are dropped
// when the queue is full.
func (h *Hub) Publish(roomCode string, eventType EventType, data any) {
	h.enqueue(Event{
		RoomCode:  roomCode,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (h *Hub) enqueue(event Event) {
	select {
	case h.broadcast <- event:
	default:
	}
}

// Log implements audit.Logger so the hub can be one of the audit sinks.
func (h *Hub) Log(_ context.Context, event audit.Event) error {
	e := Event{
		RoomCode:  AllRooms,
		Type:      EventRecognition,
		Data:      event,
		Timestamp: event.Timestamp,
	}
	if event.RoomCode != nil {
		e.RoomCode = *event.RoomCode
		e.Type = EventRoomRecognition
	}
	if event.Signal != nil {
		e.Signal = *event.Signal
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	h.enqueue(e)
	return nil
}

func (h *Hub) ConnectedClients(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomCode])
}

var _ audit.Logger = (*Hub)(nil)
