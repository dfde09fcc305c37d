package models

import (
	"sort"
	"strings"
	"time"
)

// Message is a single chat message embedded in its conversation. Messages are
// append-only and immutable once written; CreatedAt is assigned server-side.
type Message struct {
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Conversation is a two-party message thread. Participants keeps the order in
// which the pair was first seen (for display); ParticipantKey is the canonical
// unordered form used for uniqueness.
type Conversation struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	ParticipantKey string    `bson:"participant_key" json:"-"`
	Participants   []string  `bson:"participants" json:"participants"`
	Messages       []Message `bson:"messages" json:"messages"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}

// PairKey canonicalizes an unordered user pair so (a,b) and (b,a) address the
// same conversation.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// LastMessage returns the most recent message, or nil for an empty thread.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// SortByUpdatedDesc orders conversations for inbox display, newest activity
// first.
func SortByUpdatedDesc(convs []*Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}

// ValidUserID rejects identifiers that are empty or would break the canonical
// pair key.
func ValidUserID(id string) bool {
	return id != "" && !strings.Contains(id, "|")
}
