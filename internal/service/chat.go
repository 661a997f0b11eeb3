package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RazaAli313/clubchat/internal/apperr"
	"github.com/RazaAli313/clubchat/internal/domain"
	"github.com/RazaAli313/clubchat/internal/identity"
	"github.com/RazaAli313/clubchat/internal/metrics"
)

type ConversationStore interface {
	GetOrCreate(ctx context.Context, userID domain.UserID, adminID domain.AdminID) (*domain.Conversation, bool, error)
	Get(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error)
	ListByAdmin(ctx context.Context, adminID domain.AdminID) ([]domain.Conversation, error)
	NextSeq(ctx context.Context, id domain.ConversationID) (int64, error)
}

type MessageStore interface {
	Insert(ctx context.Context, m *domain.Message) error
	ListByConversation(ctx context.Context, id domain.ConversationID) ([]domain.Message, error)
}

type ProfileResolver interface {
	Lookup(ctx context.Context, id domain.UserID) (*identity.Profile, error)
}

// MessagePublisher fans an appended message out to live viewers.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, m domain.Message) error
}

// EventExporter feeds the notification pipeline.
type EventExporter interface {
	PublishMessageCreated(ctx context.Context, m domain.Message) error
}

type ChatService struct {
	convs    ConversationStore
	msgs     MessageStore
	profiles ProfileResolver
	bus      MessagePublisher
	export   EventExporter
	log      *zap.SugaredLogger
}

func NewChatService(convs ConversationStore, msgs MessageStore, profiles ProfileResolver, bus MessagePublisher, export EventExporter, log *zap.SugaredLogger) *ChatService {
	return &ChatService{convs: convs, msgs: msgs, profiles: profiles, bus: bus, export: export, log: log}
}

// ListParticipants returns the distinct users the admin has a
// conversation with, first occurrence winning on duplicates. An empty
// adminID yields an empty list. Users whose profile is gone from the
// identity store are kept with nil name/email.
func (s *ChatService) ListParticipants(ctx context.Context, adminID domain.AdminID) ([]domain.Participant, error) {
	if adminID == "" {
		return []domain.Participant{}, nil
	}
	convs, err := s.convs.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	seen := make(map[domain.UserID]bool, len(convs))
	out := make([]domain.Participant, 0, len(convs))
	for _, c := range convs {
		if seen[c.UserID] {
			continue
		}
		seen[c.UserID] = true
		p := domain.Participant{ID: c.UserID}
		profile, err := s.profiles.Lookup(ctx, c.UserID)
		switch {
		case err == nil:
			p.Name = &profile.Name
			p.Email = &profile.Email
		case errors.Is(err, apperr.ErrNotFound):
			// deleted user, keep the entry with nil fields
		default:
			s.log.Warnw("profile lookup failed", "user_id", c.UserID, "err", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// GetOrCreateConversation returns the conversation id for the pair,
// creating the row if this is their first contact.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, userID domain.UserID, adminID domain.AdminID) (domain.ConversationID, error) {
	if userID == "" || adminID == "" {
		return "", fmt.Errorf("%w: user_id and admin_id are required", apperr.ErrBadRequest)
	}
	c, created, err := s.convs.GetOrCreate(ctx, userID, adminID)
	if err != nil {
		return "", err
	}
	if created {
		metrics.ConversationsCreated.Inc()
	}
	return c.ID, nil
}

func (s *ChatService) ListMessages(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: conversation id is required", apperr.ErrBadRequest)
	}
	return s.msgs.ListByConversation(ctx, id)
}

// AppendMessage inserts an immutable message with the next sequence
// number, then fans it out to live viewers and the export topic. The
// sender must be one of the conversation's two participants.
func (s *ChatService) AppendMessage(ctx context.Context, id domain.ConversationID, senderID, content string) (domain.MessageID, error) {
	if id == "" || senderID == "" || content == "" {
		return "", fmt.Errorf("%w: conversation id, sender_id and content are required", apperr.ErrBadRequest)
	}
	conv, err := s.convs.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !conv.IsParticipant(senderID) {
		return "", fmt.Errorf("%w: sender is not a participant", apperr.ErrForbidden)
	}
	seq, err := s.convs.NextSeq(ctx, id)
	if err != nil {
		return "", err
	}
	m := domain.Message{
		ID:             domain.MessageID(uuid.NewString()),
		ConversationID: id,
		SenderID:       senderID,
		Seq:            seq,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgs.Insert(ctx, &m); err != nil {
		return "", err
	}
	metrics.MessagesAppended.Inc()

	// fan-out is best effort; readers reconverge on next list
	if s.bus != nil {
		if err := s.bus.PublishMessage(ctx, m); err != nil {
			s.log.Warnw("live publish failed", "conversation_id", id, "err", err)
		}
	}
	if s.export != nil {
		if err := s.export.PublishMessageCreated(ctx, m); err != nil {
			s.log.Warnw("event export failed", "conversation_id", id, "err", err)
		}
	}
	return m.ID, nil
}
