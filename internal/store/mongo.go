package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Serapsys/jobSite/internal/apperr"
	"github.com/Serapsys/jobSite/internal/models"
)

// MongoStore keeps each conversation as a single document with an embedded
// message array. A unique index on participant_key makes the unordered pair
// the uniqueness point, and single-document updates give per-conversation
// write serialization for free.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	idx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participant_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("participant_key_uniq"),
		},
		{
			Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("participants_updated_idx"),
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, err
	}
	return &MongoStore{coll: coll}, nil
}

func (s *MongoStore) FindOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	key := models.PairKey(userA, userB)
	now := time.Now().UTC()
	filter := bson.M{"participant_key": key}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          uuid.NewString(),
		"participants": []string{userA, userB},
		"messages":     []models.Message{},
		"created_at":   now,
		"updated_at":   now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var conv models.Conversation
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race on the unique index; the winner's document is
		// there now.
		err = s.coll.FindOne(ctx, filter).Decode(&conv)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *MongoStore) AppendMessage(ctx context.Context, convID string, msg models.Message) (*models.Conversation, error) {
	msg.CreatedAt = time.Now().UTC()
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var conv models.Conversation
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": convID}, update, opts).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *MongoStore) GetByID(ctx context.Context, convID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.coll.FindOne(ctx, bson.M{"_id": convID}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *MongoStore) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Conversation
	for cur.Next(ctx) {
		var c models.Conversation
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}
