package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case p := <-c.Send:
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestBroadcastReachesRoomMembersOnly(t *testing.T) {
	h := New()
	inRoom := NewClient("u1", 8)
	alsoInRoom := NewClient("u2", 8)
	outside := NewClient("u3", 8)
	for _, c := range []*Client{inRoom, alsoInRoom, outside} {
		h.Register(c)
	}
	h.Join("conv-1", inRoom)
	h.Join("conv-1", alsoInRoom)

	h.Broadcast("conv-1", []byte("hello"), "")

	assert.Len(t, drain(inRoom), 1)
	assert.Len(t, drain(alsoInRoom), 1)
	assert.Empty(t, drain(outside))
}

func TestBroadcastExcludesEverySocketOfUser(t *testing.T) {
	h := New()
	sender := NewClient("u1", 8)
	senderOther := NewClient("u1", 8) // same user, second device
	peer := NewClient("u2", 8)
	for _, c := range []*Client{sender, senderOther, peer} {
		h.Register(c)
		h.Join("conv-1", c)
	}

	h.Broadcast("conv-1", []byte("typing"), "u1")

	assert.Empty(t, drain(sender))
	assert.Empty(t, drain(senderOther))
	assert.Len(t, drain(peer), 1)
}

func TestBroadcastWithoutExclusionIncludesSendersOtherSockets(t *testing.T) {
	h := New()
	sender := NewClient("u1", 8)
	senderOther := NewClient("u1", 8)
	h.Register(sender)
	h.Register(senderOther)
	h.Join("conv-1", sender)
	h.Join("conv-1", senderOther)

	h.Broadcast("conv-1", []byte("new-message"), "")

	assert.Len(t, drain(sender), 1)
	assert.Len(t, drain(senderOther), 1)
}

func TestUnregisterRemovesFromRoomsAndClosesSend(t *testing.T) {
	h := New()
	c := NewClient("u1", 8)
	h.Register(c)
	h.Join("conv-1", c)

	h.Unregister(c)
	assert.False(t, h.InRoom("conv-1", c))

	_, open := <-c.Send
	assert.False(t, open, "send channel closes on unregister")

	// Broadcasting into the now-empty room must not panic.
	h.Broadcast("conv-1", []byte("x"), "")
}

func TestSendToUserHitsAllSockets(t *testing.T) {
	h := New()
	a := NewClient("u1", 8)
	b := NewClient("u1", 8)
	other := NewClient("u2", 8)
	for _, c := range []*Client{a, b, other} {
		h.Register(c)
	}

	h.SendToUser("u1", []byte("direct"))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Empty(t, drain(other))
}

func TestLeaveRoom(t *testing.T) {
	h := New()
	c := NewClient("u1", 8)
	h.Register(c)
	h.Join("conv-1", c)
	assert.True(t, h.InRoom("conv-1", c))

	h.Leave("conv-1", c)
	assert.False(t, h.InRoom("conv-1", c))

	h.Broadcast("conv-1", []byte("x"), "")
	assert.Empty(t, drain(c))
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	h := New()
	slow := NewClient("u1", 1)
	h.Register(slow)
	h.Join("conv-1", slow)

	// Fill the buffer, then broadcast twice more; extra events drop instead
	// of blocking.
	h.Broadcast("conv-1", []byte("1"), "")
	h.Broadcast("conv-1", []byte("2"), "")
	h.Broadcast("conv-1", []byte("3"), "")

	assert.Len(t, drain(slow), 1)
}
