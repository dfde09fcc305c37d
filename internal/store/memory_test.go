package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Serapsys/jobSite/internal/apperr"
	"github.com/Serapsys/jobSite/internal/models"
)

func TestFindOrCreateReturnsSameConversationForPair(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c1, err := s.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	c2, err := s.FindOrCreate(ctx, "bob", "alice")
	require.NoError(t, err)

	assert.Equal(t, c1.ID, c2.ID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, c1.Participants)
	assert.Empty(t, c1.Messages)
}

func TestFindOrCreateConcurrentRaceCollapsesToOneWinner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const workers = 32
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 0 {
				a, b = b, a
			}
			conv, err := s.FindOrCreate(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestAppendKeepsOrderAndNonDecreasingTimestamps(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv, err := s.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)

	const n = 20
	for i := 0; i < n; i++ {
		sender := "alice"
		if i%2 == 1 {
			sender = "bob"
		}
		_, err := s.AppendMessage(ctx, conv.ID, models.Message{SenderID: sender, Content: "msg"})
		require.NoError(t, err)
	}

	got, err := s.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, n)
	for i := 1; i < n; i++ {
		assert.False(t, got.Messages[i].CreatedAt.Before(got.Messages[i-1].CreatedAt),
			"timestamps must be non-decreasing")
	}
	assert.Equal(t, got.Messages[n-1].CreatedAt, got.UpdatedAt)
}

func TestAppendUnknownConversation(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.AppendMessage(context.Background(), "nope", models.Message{SenderID: "a", Content: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListForUserOrdersByActivity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	withBob, err := s.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	withCarol, err := s.FindOrCreate(ctx, "alice", "carol")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, withBob.ID, models.Message{SenderID: "bob", Content: "hi"})
	require.NoError(t, err)

	convs, err := s.ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, withBob.ID, convs[0].ID, "conversation with newest message comes first")
	assert.Equal(t, withCarol.ID, convs[1].ID)

	convs, err = s.ListForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, convs, 1)
}

func TestReturnedConversationsAreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv, err := s.FindOrCreate(ctx, "alice", "bob")
	require.NoError(t, err)
	conv.Participants[0] = "mallory"
	conv.Messages = append(conv.Messages, models.Message{SenderID: "mallory", Content: "hax"})

	got, err := s.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.Participants)
	assert.Empty(t, got.Messages)
}
