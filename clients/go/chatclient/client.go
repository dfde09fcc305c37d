// Package chatclient is a Go client for the job-portal chat backend: REST
// calls for state, plus a WebSocket session with automatic reconnect for live
// events.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)

type Message struct {
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Presence struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListConversations returns the caller's inbox, newest activity first.
func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	err := c.do(ctx, http.MethodGet, "/api/chat/", nil, &out)
	return out, err
}

// GetConversation returns one conversation with full message history.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var out Conversation
	if err := c.do(ctx, http.MethodGet, "/api/chat/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartConversation finds or creates the conversation with participantID,
// seeding it with initialMessage when non-empty.
func (c *Client) StartConversation(ctx context.Context, participantID, initialMessage string) (*Conversation, error) {
	body := map[string]string{"participantId": participantID}
	if initialMessage != "" {
		body["initialMessage"] = initialMessage
	}
	var out Conversation
	if err := c.do(ctx, http.MethodPost, "/api/chat/start", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage appends a message over HTTP (the fallback path when no live
// session is open).
func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*Conversation, error) {
	var out Conversation
	err := c.do(ctx, http.MethodPost, "/api/chat/"+conversationID+"/message",
		map[string]string{"content": content}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPresence reports whether a user currently holds a live connection.
func (c *Client) GetPresence(ctx context.Context, userID string) (*Presence, error) {
	var out Presence
	if err := c.do(ctx, http.MethodGet, "/api/chat/presence/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if base := statusErr(resp.StatusCode); base != nil {
			return fmt.Errorf("%w: %s", base, errBody.Message)
		}
		return fmt.Errorf("chat service returned %d: %s", resp.StatusCode, errBody.Message)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusErr(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return nil
	}
}
