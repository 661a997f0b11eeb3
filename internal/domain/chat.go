package domain

import "time"

// External identifiers are issued by the club's auth backend and treated
// as opaque keys. The distinct types keep user and admin ids from being
// mixed up in call sites.
type (
	UserID         string
	AdminID        string
	ConversationID string
	MessageID      string
)

func (id UserID) String() string         { return string(id) }
func (id AdminID) String() string        { return string(id) }
func (id ConversationID) String() string { return string(id) }
func (id MessageID) String() string      { return string(id) }

// Conversation is a single thread between one user and one admin.
// At most one exists per (user_id, admin_id) pair. LastSeq is the
// sequence number of the most recently appended message.
type Conversation struct {
	ID        ConversationID `bson:"_id" json:"id"`
	UserID    UserID         `bson:"user_id" json:"user_id"`
	AdminID   AdminID        `bson:"admin_id" json:"admin_id"`
	LastSeq   int64          `bson:"last_seq" json:"-"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// IsParticipant reports whether sender is one of the conversation's two
// legitimate participants.
func (c *Conversation) IsParticipant(sender string) bool {
	return sender == string(c.UserID) || sender == string(c.AdminID)
}

// Message is one immutable entry in a conversation. Content carries
// rich-text markup and is stored opaquely. Seq is assigned per
// conversation at insert time and strictly increases, so sorting by it
// gives a total order even when two messages land in the same clock tick.
type Message struct {
	ID             MessageID      `bson:"_id" json:"id"`
	ConversationID ConversationID `bson:"conversation_id" json:"conversation_id"`
	SenderID       string         `bson:"sender_id" json:"sender_id"`
	Seq            int64          `bson:"seq" json:"seq"`
	Content        string         `bson:"content" json:"content"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

// Participant is an admin-facing projection of a user the admin has a
// conversation with. Name and Email are nil when the user's profile is
// no longer present in the identity store.
type Participant struct {
	ID    UserID  `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
