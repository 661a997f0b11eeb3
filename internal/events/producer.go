package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/RazaAli313/clubchat/internal/domain"
)

// MessageCreated is the export event the notification pipeline consumes.
type MessageCreated struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	Seq            int64     `json:"seq"`
	CreatedAt      time.Time `json:"created_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Producer{writer: w}
}

func (p *Producer) PublishMessageCreated(ctx context.Context, m domain.Message) error {
	ev := MessageCreated{
		ConversationID: string(m.ConversationID),
		MessageID:      string(m.ID),
		SenderID:       m.SenderID,
		Seq:            m.Seq,
		CreatedAt:      m.CreatedAt,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.ConversationID),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
