package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIsParticipant(t *testing.T) {
	c := &Conversation{ID: "c1", UserID: "u1", AdminID: "a1"}

	tests := []struct {
		sender string
		want   bool
	}{
		{"u1", true},
		{"a1", true},
		{"u2", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsParticipant(tt.sender), "sender %q", tt.sender)
	}
}
