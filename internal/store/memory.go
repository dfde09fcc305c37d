package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Serapsys/jobSite/internal/apperr"
	"github.com/Serapsys/jobSite/internal/models"
)

// MemoryStore is a process-local ConversationStore used in tests and
// brokerless development. A single mutex stands in for Mongo's per-document
// atomicity; conversations are copied on the way out so callers never share
// the internal state.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[string]*models.Conversation
	byPair map[string]string // participant key -> conversation id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*models.Conversation),
		byPair: make(map[string]string),
	}
}

func (s *MemoryStore) FindOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	key := models.PairKey(userA, userB)

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byPair[key]; ok {
		return copyConv(s.byID[id]), nil
	}
	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:             uuid.NewString(),
		ParticipantKey: key,
		Participants:   []string{userA, userB},
		Messages:       []models.Message{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.byID[conv.ID] = conv
	s.byPair[key] = conv.ID
	return copyConv(conv), nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, convID string, msg models.Message) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[convID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	msg.CreatedAt = time.Now().UTC()
	// Keep timestamps non-decreasing even if the wall clock steps back.
	if last := conv.LastMessage(); last != nil && msg.CreatedAt.Before(last.CreatedAt) {
		msg.CreatedAt = last.CreatedAt
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.CreatedAt
	return copyConv(conv), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, convID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[convID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return copyConv(conv), nil
}

func (s *MemoryStore) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	s.mu.Lock()
	var out []*models.Conversation
	for _, conv := range s.byID {
		if conv.HasParticipant(userID) {
			out = append(out, copyConv(conv))
		}
	}
	s.mu.Unlock()

	models.SortByUpdatedDesc(out)
	return out, nil
}

func copyConv(c *models.Conversation) *models.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.Messages = append([]models.Message(nil), c.Messages...)
	return &cp
}
