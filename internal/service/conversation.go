// Package service holds the chat business rules: find-or-create between two
// users, participant authorization, and message appends. Both the HTTP layer
// and the realtime gateway write through here so the store stays the single
// source of truth.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Serapsys/jobSite/internal/apperr"
	"github.com/Serapsys/jobSite/internal/directory"
	"github.com/Serapsys/jobSite/internal/events"
	"github.com/Serapsys/jobSite/internal/models"
	"github.com/Serapsys/jobSite/internal/store"
)

type ConversationService struct {
	store  store.ConversationStore
	dir    directory.Directory
	events events.Publisher
	log    *zap.SugaredLogger
}

func NewConversationService(st store.ConversationStore, dir directory.Directory, pub events.Publisher, log *zap.SugaredLogger) *ConversationService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &ConversationService{store: st, dir: dir, events: pub, log: log}
}

// FindOrCreate returns the unique conversation between actorID and
// participantID, creating it if needed. A non-empty initialMessage is
// appended whether the conversation was found or created. The actor is
// trusted from its authenticated context; the target participant is checked
// against the user directory.
func (s *ConversationService) FindOrCreate(ctx context.Context, actorID, participantID, initialMessage string) (*models.Conversation, error) {
	if !models.ValidUserID(participantID) || participantID == actorID {
		return nil, fmt.Errorf("%w: invalid participant id", apperr.ErrInvalidArgument)
	}
	ok, err := s.dir.Exists(ctx, participantID)
	if err != nil {
		s.log.Errorw("directory lookup failed", "user", participantID, "err", err)
		return nil, fmt.Errorf("%w: user directory", apperr.ErrInternal)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, participantID)
	}

	conv, err := s.store.FindOrCreate(ctx, actorID, participantID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(initialMessage) == "" {
		return conv, nil
	}
	return s.appendAndPublish(ctx, conv, actorID, initialMessage)
}

// Append adds a message from actorID to an existing conversation. State is
// left untouched on any failure.
func (s *ConversationService) Append(ctx context.Context, convID, actorID, content string) (*models.Conversation, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty message content", apperr.ErrInvalidArgument)
	}
	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actorID) {
		return nil, fmt.Errorf("%w: not a participant", apperr.ErrForbidden)
	}
	return s.appendAndPublish(ctx, conv, actorID, content)
}

// ListForUser returns the caller's inbox, most recent activity first.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	return s.store.ListForUser(ctx, userID)
}

// GetByID returns the full conversation if actorID participates in it.
func (s *ConversationService) GetByID(ctx context.Context, convID, actorID string) (*models.Conversation, error) {
	conv, err := s.store.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actorID) {
		return nil, fmt.Errorf("%w: not a participant", apperr.ErrForbidden)
	}
	return conv, nil
}

func (s *ConversationService) appendAndPublish(ctx context.Context, conv *models.Conversation, senderID, content string) (*models.Conversation, error) {
	updated, err := s.store.AppendMessage(ctx, conv.ID, models.Message{
		SenderID: senderID,
		Content:  content,
	})
	if err != nil {
		return nil, err
	}
	msg := updated.LastMessage()
	ev := events.MessageSent{
		ConversationID: updated.ID,
		SenderID:       senderID,
		RecipientID:    otherParticipant(updated, senderID),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	if err := s.events.PublishMessageSent(ctx, ev); err != nil {
		s.log.Warnw("message.sent publish failed", "conversation", updated.ID, "err", err)
	}
	return updated, nil
}

func otherParticipant(c *models.Conversation, userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}
