// Package store owns durability for conversations. All mutation funnels
// through FindOrCreate and AppendMessage, which serialize concurrent writers
// per conversation; callers must not acknowledge a message until these return.
package store

import (
	"context"

	"github.com/Serapsys/jobSite/internal/models"
)

type ConversationStore interface {
	// FindOrCreate returns the unique conversation for the unordered pair
	// (userA, userB), creating an empty one if none exists. Concurrent calls
	// for the same pair collapse to a single conversation.
	FindOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error)

	// AppendMessage atomically appends msg (CreatedAt assigned here) and
	// refreshes UpdatedAt, returning the updated conversation. Fails with
	// apperr.ErrNotFound if the conversation does not exist.
	AppendMessage(ctx context.Context, convID string, msg models.Message) (*models.Conversation, error)

	// GetByID returns the full conversation or apperr.ErrNotFound.
	GetByID(ctx context.Context, convID string) (*models.Conversation, error)

	// ListForUser returns every conversation the user participates in,
	// ordered by UpdatedAt descending.
	ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error)
}
