package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RazaAli313/clubchat/internal/domain"
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(coll *mongo.Collection) *MessageRepository {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("conversation_seq_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &MessageRepository{coll: coll}
}

func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

// ListByConversation returns every message in the conversation in seq
// ascending order. There is no pagination; threads here are short-lived
// support exchanges.
func (r *MessageRepository) ListByConversation(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": id}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []domain.Message{}
	for cur.Next(ctx) {
		var m domain.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, cur.Err()
}
