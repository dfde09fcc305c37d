// Package gateway bridges live WebSocket connections to the conversation
// service. It is a notification overlay only: every write goes through the
// service before anything is broadcast, so a client that misses an event can
// recover full state over HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Serapsys/jobSite/internal/apperr"
	"github.com/Serapsys/jobSite/internal/hub"
	"github.com/Serapsys/jobSite/internal/models"
	"github.com/Serapsys/jobSite/internal/presence"
	"github.com/Serapsys/jobSite/internal/service"
)

type TokenValidator interface {
	Validate(token string) (string, error)
}

type Options struct {
	PingInterval time.Duration
	WriteWait    time.Duration
	PongWait     time.Duration
	MaxMsgSize   int64
	SendBuffer   int
}

func (o *Options) defaults() {
	if o.PingInterval == 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteWait == 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait == 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxMsgSize == 0 {
		o.MaxMsgSize = 64 * 1024
	}
	if o.SendBuffer == 0 {
		o.SendBuffer = 256
	}
}

type Gateway struct {
	hub      *hub.Hub
	svc      *service.ConversationService
	presence *presence.Store // nil when redis is not configured
	tokens   TokenValidator
	log      *zap.SugaredLogger
	opts     Options

	instanceID string
}

func New(h *hub.Hub, svc *service.ConversationService, pres *presence.Store, tokens TokenValidator, log *zap.SugaredLogger, opts Options) *Gateway {
	opts.defaults()
	return &Gateway{
		hub:        h,
		svc:        svc,
		presence:   pres,
		tokens:     tokens,
		log:        log,
		opts:       opts,
		instanceID: uuid.NewString(),
	}
}

// Handler runs one connection: credential check at handshake, personal
// channel registration, then the read loop. Business-rule failures are
// reported as error events; only transport failures end the connection.
func (g *Gateway) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		userID, err := g.tokens.Validate(conn.Query("token"))
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, errorEvent("authentication failed"))
			_ = conn.Close()
			return
		}

		client := hub.NewClient(userID, g.opts.SendBuffer)
		g.hub.Register(client)
		if g.presence != nil {
			if err := g.presence.ConnectionOpened(context.Background(), userID, client.ID); err != nil {
				g.log.Warnw("presence open failed", "user", userID, "err", err)
			}
		}
		g.log.Infow("connected", "user", userID, "socket", client.ID)

		go g.writePump(conn, client)
		g.readPump(conn, client)

		g.hub.Unregister(client)
		if g.presence != nil {
			if err := g.presence.ConnectionClosed(context.Background(), userID, client.ID); err != nil {
				g.log.Warnw("presence close failed", "user", userID, "err", err)
			}
		}
		g.log.Infow("disconnected", "user", userID, "socket", client.ID)
	}
}

func (g *Gateway) readPump(conn *websocket.Conn, client *hub.Client) {
	conn.SetReadLimit(g.opts.MaxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(g.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.opts.PongWait))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		g.dispatch(context.Background(), client, env)
	}
}

func (g *Gateway) writePump(conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(g.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case payload, ok := <-client.Send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(g.opts.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(g.opts.WriteWait))
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *hub.Client, env Envelope) {
	var p chatPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
	}

	switch env.Type {
	case EventJoinChat:
		g.handleJoin(ctx, client, p.ChatID)
	case EventLeaveChat:
		g.hub.Leave(p.ChatID, client)
	case EventSend:
		g.handleSend(ctx, client, p.ChatID, p.Content)
	case EventTyping:
		g.broadcastRoom(ctx, p.ChatID, presenceEvent(EventUserTyping, p.ChatID, client.UserID), client.UserID)
	case EventStopTyping:
		g.broadcastRoom(ctx, p.ChatID, presenceEvent(EventUserStopTyping, p.ChatID, client.UserID), client.UserID)
	default:
		// unknown event types are ignored
	}
}

// handleJoin admits the socket to the conversation room only after verifying
// participation. A failed join is silently dropped: no room change, no error
// event, so non-participants cannot probe which conversation ids exist.
func (g *Gateway) handleJoin(ctx context.Context, client *hub.Client, chatID string) {
	if chatID == "" {
		return
	}
	if _, err := g.svc.GetByID(ctx, chatID, client.UserID); err != nil {
		g.log.Debugw("join rejected", "user", client.UserID, "chat", chatID, "err", err)
		return
	}
	g.hub.Join(chatID, client)
	g.log.Debugw("joined", "user", client.UserID, "chat", chatID)
}

// handleSend writes through the conversation service and, only after the
// store acknowledged, broadcasts new-message to the room - including the
// sender's own sockets. Failures go back to the requesting connection alone.
func (g *Gateway) handleSend(ctx context.Context, client *hub.Client, chatID, content string) {
	conv, err := g.svc.Append(ctx, chatID, client.UserID, content)
	if err != nil {
		g.hub.SendTo(client, errorEvent(clientMessage(err)))
		return
	}
	msg := conv.LastMessage()
	g.broadcastRoom(ctx, chatID, newMessageEvent(chatID, *msg), "")
}

func newMessageEvent(chatID string, msg models.Message) []byte {
	return encodeEvent(EventNewMessage, map[string]any{
		"chat_id": chatID,
		"message": msg,
	})
}

// clientMessage maps the error taxonomy to a human-readable string without
// leaking internal detail.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return "Chat not found"
	case errors.Is(err, apperr.ErrForbidden):
		return "Not authorized to access this chat"
	case errors.Is(err, apperr.ErrInvalidArgument):
		return "Message content is required"
	default:
		return "Error sending message"
	}
}
