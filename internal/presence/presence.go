// Package presence tracks which users currently hold live connections, and
// carries the cross-instance pub/sub channel the gateway uses to fan events
// out to sockets held by other instances.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const connTTL = 24 * time.Hour

type Status struct {
	Status   string `json:"status"` // "online" or "offline"
	LastSeen int64  `json:"last_seen"`
}

type Store struct {
	client *redis.Client
	prefix string
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", s.prefix, userID)
}

func (s *Store) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *Store) roomChannel(convID string) string {
	return fmt.Sprintf("%s:room:%s", s.prefix, convID)
}

// ConnectionOpened records a socket for the user and marks them online.
func (s *Store) ConnectionOpened(ctx context.Context, userID, socketID string) error {
	if err := s.client.SAdd(ctx, s.connKey(userID), socketID).Err(); err != nil {
		return err
	}
	_ = s.client.Expire(ctx, s.connKey(userID), connTTL).Err()
	return s.setStatus(ctx, userID, "online")
}

// ConnectionClosed removes the socket; the user goes offline when their last
// socket is gone.
func (s *Store) ConnectionClosed(ctx context.Context, userID, socketID string) error {
	key := s.connKey(userID)
	if err := s.client.SRem(ctx, key, socketID).Err(); err != nil {
		return err
	}
	n, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.setStatus(ctx, userID, "offline")
	}
	return nil
}

func (s *Store) setStatus(ctx context.Context, userID, status string) error {
	b, _ := json.Marshal(Status{Status: status, LastSeen: time.Now().Unix()})
	return s.client.Set(ctx, s.presenceKey(userID), b, connTTL).Err()
}

// Get returns the stored presence; unknown users read as offline.
func (s *Store) Get(ctx context.Context, userID string) (Status, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if err == redis.Nil {
		return Status{Status: "offline"}, nil
	}
	if err != nil {
		return Status{}, err
	}
	var st Status
	if err := json.Unmarshal(b, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

// PublishRoom pushes a gateway payload onto the conversation's pub/sub
// channel for other instances.
func (s *Store) PublishRoom(ctx context.Context, convID string, payload []byte) error {
	return s.client.Publish(ctx, s.roomChannel(convID), payload).Err()
}

// SubscribeRooms subscribes to every conversation channel on this prefix.
func (s *Store) SubscribeRooms(ctx context.Context) *redis.PubSub {
	return s.client.PSubscribe(ctx, fmt.Sprintf("%s:room:*", s.prefix))
}

// RoomFromChannel recovers the conversation id from a pub/sub channel name.
func (s *Store) RoomFromChannel(channel string) string {
	prefix := fmt.Sprintf("%s:room:", s.prefix)
	if len(channel) <= len(prefix) {
		return ""
	}
	return channel[len(prefix):]
}
