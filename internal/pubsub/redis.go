package pubsub

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RazaAli313/clubchat/internal/domain"
)

// Messages appended on any instance are published to a per-conversation
// Redis channel; every instance subscribes and forwards to its local
// websocket hub. This is what keeps open conversation views converging
// on the same seq-ordered message list without polling.

const channelPrefix = "chat:conv:"

type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) PublishMessage(ctx context.Context, m domain.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channelPrefix+string(m.ConversationID), b).Err()
}

// Sink receives messages forwarded off the bus, keyed by conversation.
type Sink interface {
	Broadcast(conversationID domain.ConversationID, m domain.Message)
}

type Subscriber struct {
	rdb  *redis.Client
	sink Sink
	log  *zap.SugaredLogger
}

func NewSubscriber(rdb *redis.Client, sink Sink, log *zap.SugaredLogger) *Subscriber {
	return &Subscriber{rdb: rdb, sink: sink, log: log}
}

// Run blocks consuming the bus until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	sub := s.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m domain.Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				s.log.Warnw("drop malformed bus payload", "channel", msg.Channel, "err", err)
				continue
			}
			convID := domain.ConversationID(strings.TrimPrefix(msg.Channel, channelPrefix))
			s.sink.Broadcast(convID, m)
		}
	}
}
