package ws

import (
	"sync"

	"github.com/RazaAli313/clubchat/internal/domain"
)

// Hub tracks which websocket clients are watching which conversation.
type Hub struct {
	rooms map[domain.ConversationID]map[*Client]bool
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[domain.ConversationID]map[*Client]bool)}
}

func (h *Hub) Register(conversationID domain.ConversationID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][c] = true
}

func (h *Hub) Unregister(conversationID domain.ConversationID, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[conversationID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

// Broadcast delivers m to every client watching the conversation. Slow
// consumers are skipped rather than blocking the bus.
func (h *Hub) Broadcast(conversationID domain.ConversationID, m domain.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[conversationID] {
		c.Send(m)
	}
}

func (h *Hub) Watchers(conversationID domain.ConversationID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}
