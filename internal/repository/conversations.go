package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/RazaAli313/clubchat/internal/apperr"
	"github.com/RazaAli313/clubchat/internal/domain"
)

type ConversationRepository struct {
	coll *mongo.Collection
}

func NewConversationRepository(coll *mongo.Collection) *ConversationRepository {
	// The unique compound index is what makes get-or-create safe under
	// concurrent callers: two racing upserts for the same pair converge
	// on a single row instead of both inserting.
	pairIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "admin_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_admin_idx"),
	}
	adminIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "admin_id", Value: 1}},
		Options: options.Index().SetName("admin_idx"),
	}
	_, _ = coll.Indexes().CreateMany(context.Background(), []mongo.IndexModel{pairIdx, adminIdx})
	return &ConversationRepository{coll: coll}
}

// GetOrCreate returns the conversation for the pair, inserting it first
// if absent. The check and the insert are a single conditional upsert
// guarded by the unique pair index, so concurrent callers cannot both
// create. The second return reports whether this call inserted the row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userID domain.UserID, adminID domain.AdminID) (*domain.Conversation, bool, error) {
	filter := bson.M{"user_id": userID, "admin_id": adminID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":        domain.ConversationID(uuid.NewString()),
		"user_id":    userID,
		"admin_id":   adminID,
		"last_seq":   int64(0),
		"created_at": time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// concurrent upserts for the same pair: exactly one wins the
		// unique index, the loser reads the winner's row
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, err
		}
		res = &mongo.UpdateResult{}
	}
	var c domain.Conversation
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, false, err
	}
	return &c, res.UpsertedCount == 1, nil
}

func (r *ConversationRepository) Get(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) ListByAdmin(ctx context.Context, adminID domain.AdminID) ([]domain.Conversation, error) {
	cur, err := r.coll.Find(ctx, bson.M{"admin_id": adminID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domain.Conversation
	for cur.Next(ctx) {
		var c domain.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, cur.Err()
}

// NextSeq atomically increments the conversation's sequence counter and
// returns the new value. Returns apperr.ErrNotFound if the conversation
// does not exist.
func (r *ConversationRepository) NextSeq(ctx context.Context, id domain.ConversationID) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c domain.Conversation
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"last_seq": 1}}, opts).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperr.ErrNotFound
		}
		return 0, err
	}
	return c.LastSeq, nil
}
