package gateway

import (
	"context"
	"encoding/json"
)

// fanoutFrame travels over the Redis room channel so gateway instances can
// deliver to sockets they do not hold. Origin lets an instance skip frames it
// published itself; ExcludeUser carries the typing-event sender exclusion
// across instances.
type fanoutFrame struct {
	Origin      string          `json:"origin"`
	ExcludeUser string          `json:"exclude_user,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// broadcastRoom delivers to local room members and, when Redis is configured,
// publishes the same payload for the other gateway instances.
func (g *Gateway) broadcastRoom(ctx context.Context, chatID string, payload []byte, excludeUser string) {
	if chatID == "" {
		return
	}
	g.hub.Broadcast(chatID, payload, excludeUser)
	if g.presence == nil {
		return
	}
	frame, _ := json.Marshal(fanoutFrame{
		Origin:      g.instanceID,
		ExcludeUser: excludeUser,
		Payload:     payload,
	})
	if err := g.presence.PublishRoom(ctx, chatID, frame); err != nil {
		g.log.Warnw("room fanout publish failed", "chat", chatID, "err", err)
	}
}

// RunFanout consumes the cross-instance room channel and replays remote
// broadcasts into the local hub. Blocks until ctx is cancelled; no-op when
// Redis is not configured.
func (g *Gateway) RunFanout(ctx context.Context) {
	if g.presence == nil {
		return
	}
	sub := g.presence.SubscribeRooms(ctx)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			chatID := g.presence.RoomFromChannel(m.Channel)
			if chatID == "" {
				continue
			}
			var frame fanoutFrame
			if err := json.Unmarshal([]byte(m.Payload), &frame); err != nil {
				continue
			}
			if frame.Origin == g.instanceID {
				continue
			}
			g.hub.Broadcast(chatID, frame.Payload, frame.ExcludeUser)
		}
	}
}
