package chatclient

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fasthttp/websocket"
)

// Event is one frame received from the gateway (new-message, user-typing,
// user-stop-typing, error).
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Session is a live gateway connection. When the transport drops it redials
// with exponential backoff and re-joins every room joined so far; events
// missed while offline are recovered by re-fetching the conversation over
// HTTP.
type Session struct {
	wsURL string

	mu     sync.Mutex
	conn   *websocket.Conn
	joined map[string]struct{}

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Dial opens a session. The credential travels in the query string and is
// validated by the gateway before admission.
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {c.Token}}.Encode()

	s := &Session{
		wsURL:  u.String(),
		joined: make(map[string]struct{}),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	go s.readLoop()
	return s, nil
}

func (s *Session) connect(ctx context.Context) error {
	op := func() error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		return nil
	}
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = time.Minute
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// Events delivers gateway frames. The channel closes when the session is
// closed for good.
func (s *Session) Events() <-chan Event { return s.events }

// Join subscribes to a conversation's events. The subscription survives
// reconnects.
func (s *Session) Join(conversationID string) error {
	s.mu.Lock()
	s.joined[conversationID] = struct{}{}
	s.mu.Unlock()
	return s.send("join-chat", map[string]string{"chat_id": conversationID})
}

// Leave drops the subscription.
func (s *Session) Leave(conversationID string) error {
	s.mu.Lock()
	delete(s.joined, conversationID)
	s.mu.Unlock()
	return s.send("leave-chat", map[string]string{"chat_id": conversationID})
}

// Send appends a message through the live path. Delivery is confirmed by the
// echoed new-message event; an error event means the append was rejected.
func (s *Session) Send(conversationID, content string) error {
	return s.send("send-message", map[string]string{
		"chat_id": conversationID,
		"content": content,
	})
}

// Typing signals the typing indicator to the other participant.
func (s *Session) Typing(conversationID string) error {
	return s.send("typing", map[string]string{"chat_id": conversationID})
}

// StopTyping clears the typing indicator.
func (s *Session) StopTyping(conversationID string) error {
	return s.send("stop-typing", map[string]string{"chat_id": conversationID})
}

// Close tears the session down; no reconnect is attempted afterwards.
func (s *Session) Close() error {
	s.once.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Session) send(eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return websocket.ErrCloseSent
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Session) readLoop() {
	defer close(s.events)
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if err := s.reconnect(); err != nil {
				return
			}
			// Tell the caller to re-fetch conversation state over HTTP;
			// anything broadcast while offline was missed.
			select {
			case s.events <- Event{Type: "reconnected"}:
			case <-s.done:
				return
			}
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// reconnect redials and replays join-chat for every room the caller is
// subscribed to.
func (s *Session) reconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.connect(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	rooms := make([]string, 0, len(s.joined))
	for id := range s.joined {
		rooms = append(rooms, id)
	}
	s.mu.Unlock()
	for _, id := range rooms {
		if err := s.send("join-chat", map[string]string{"chat_id": id}); err != nil {
			return err
		}
	}
	return nil
}
