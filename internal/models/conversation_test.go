package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.NotEqual(t, PairKey("alice", "bob"), PairKey("alice", "carol"))
}

func TestHasParticipant(t *testing.T) {
	c := &Conversation{Participants: []string{"alice", "bob"}}
	assert.True(t, c.HasParticipant("alice"))
	assert.True(t, c.HasParticipant("bob"))
	assert.False(t, c.HasParticipant("carol"))
}

func TestLastMessage(t *testing.T) {
	c := &Conversation{}
	assert.Nil(t, c.LastMessage())

	c.Messages = []Message{{Content: "first"}, {Content: "second"}}
	assert.Equal(t, "second", c.LastMessage().Content)
}

func TestSortByUpdatedDesc(t *testing.T) {
	now := time.Now()
	old := &Conversation{ID: "old", UpdatedAt: now.Add(-time.Hour)}
	fresh := &Conversation{ID: "fresh", UpdatedAt: now}
	convs := []*Conversation{old, fresh}

	SortByUpdatedDesc(convs)
	assert.Equal(t, "fresh", convs[0].ID)
}

func TestValidUserID(t *testing.T) {
	assert.True(t, ValidUserID("user-1"))
	assert.False(t, ValidUserID(""))
	assert.False(t, ValidUserID("a|b"))
}
