package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RazaAli313/clubchat/internal/domain"
)

func drain(c *Client) []domain.Message {
	var out []domain.Message
	for {
		select {
		case m := <-c.send:
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHubBroadcastReachesRoomOnly(t *testing.T) {
	hub := NewHub()
	a1 := NewClient(nil)
	a2 := NewClient(nil)
	b := NewClient(nil)
	hub.Register("conv-a", a1)
	hub.Register("conv-a", a2)
	hub.Register("conv-b", b)

	msg := domain.Message{ID: "m1", ConversationID: "conv-a", SenderID: "u1", Seq: 1, Content: "<p>hi</p>"}
	hub.Broadcast("conv-a", msg)

	for _, c := range []*Client{a1, a2} {
		got := drain(c)
		require.Len(t, got, 1)
		assert.Equal(t, msg.ID, got[0].ID)
	}
	assert.Empty(t, drain(b))
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	c := NewClient(nil)
	hub.Register("conv-a", c)
	require.Equal(t, 1, hub.Watchers("conv-a"))

	hub.Unregister("conv-a", c)
	assert.Equal(t, 0, hub.Watchers("conv-a"))

	hub.Broadcast("conv-a", domain.Message{ID: "m1", ConversationID: "conv-a"})
	assert.Empty(t, drain(c))
}

func TestClientSendDropsWhenFull(t *testing.T) {
	c := NewClient(nil)
	for i := 0; i < cap(c.send)+10; i++ {
		c.Send(domain.Message{Seq: int64(i)})
	}
	assert.Len(t, drain(c), cap(c.send))
}
