package chatclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/start", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u2", body["participantId"])
		assert.Equal(t, "hi", body["initialMessage"])

		_ = json.NewEncoder(w).Encode(Conversation{
			ID:           "conv-1",
			Participants: []string{"u1", "u2"},
			Messages:     []Message{{SenderID: "u1", Content: "hi"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	conv, err := c.StartConversation(context.Background(), "u2", "hi")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.ID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hi", conv.Messages[0].Content)
}

func TestListConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Conversation{{ID: "a"}, {ID: "b"}})
	}))
	defer srv.Close()

	convs, err := New(srv.URL, "tok").ListConversations(context.Background())
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
		}))
		_, err := New(srv.URL, "tok").GetConversation(context.Background(), "x")
		assert.ErrorIs(t, err, tc.want)
		srv.Close()
	}
}

func TestUnmappedStatusIncludesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok").GetConversation(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conv-1/message", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["content"])
		_ = json.NewEncoder(w).Encode(Conversation{ID: "conv-1", Messages: []Message{
			{SenderID: "u1", Content: "hi"},
			{SenderID: "u1", Content: "hello"},
		}})
	}))
	defer srv.Close()

	conv, err := New(srv.URL, "tok").SendMessage(context.Background(), "conv-1", "hello")
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2)
}
