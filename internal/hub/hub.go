// Package hub is the in-process registry of live connections: which sockets
// belong to which user, and which sockets are subscribed to which
// conversation room. It holds no business state; authorization happens
// before Join is called.
package hub

import (
	"sync"

	"github.com/google/uuid"
)

// Client is one live socket. Send is drained by the connection's write pump;
// a full buffer drops the event rather than blocking a broadcast.
type Client struct {
	ID     string
	UserID string
	Send   chan []byte

	closeOnce sync.Once
}

func NewClient(userID string, sendBuffer int) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

func (c *Client) trySend(payload []byte) {
	select {
	case c.Send <- payload:
	default:
		// slow consumer; realtime events are best-effort, state is
		// recoverable over HTTP
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*Client]struct{}
	rooms  map[string]map[*Client]struct{}
}

func New() *Hub {
	return &Hub{
		byUser: make(map[string]map[*Client]struct{}),
		rooms:  make(map[string]map[*Client]struct{}),
	}
}

// Register admits an authenticated connection and subscribes it to the
// user's personal channel.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byUser[c.UserID]; !ok {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

// Unregister removes the connection from its personal channel and every room
// and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.byUser[c.UserID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Join subscribes the connection to a conversation room.
func (h *Hub) Join(convID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[convID]; !ok {
		h.rooms[convID] = make(map[*Client]struct{})
	}
	h.rooms[convID][c] = struct{}{}
}

// Leave unsubscribes the connection from a room.
func (h *Hub) Leave(convID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[convID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, convID)
		}
	}
}

// InRoom reports whether the connection is currently subscribed to the room.
func (h *Hub) InRoom(convID string, c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[convID][c]
	return ok
}

// Broadcast delivers payload to every member of the room. A non-empty
// excludeUser skips every socket held by that user (typing indicators exclude
// all of the sender's connections; new-message broadcasts exclude nobody).
func (h *Hub) Broadcast(convID string, payload []byte, excludeUser string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[convID] {
		if excludeUser != "" && c.UserID == excludeUser {
			continue
		}
		c.trySend(payload)
	}
}

// SendToUser delivers payload to every socket the user currently holds.
func (h *Hub) SendToUser(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[userID] {
		c.trySend(payload)
	}
}

// SendTo delivers payload to a single connection.
func (h *Hub) SendTo(c *Client, payload []byte) {
	c.trySend(payload)
}
