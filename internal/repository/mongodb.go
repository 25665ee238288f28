package repository

import (
	"context"
	"fmt"

	"github.com/m2tx/solarshine/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTranscriptRepository implements TranscriptRepository using MongoDB.
type MongoTranscriptRepository struct {
	collection *mongo.Collection
}

// NewMongoTranscriptRepository creates a new MongoTranscriptRepository.
// collectionName defaults to "transcripts" if empty.
func NewMongoTranscriptRepository(db *mongo.Database, collectionName string) *MongoTranscriptRepository {
	if collectionName == "" {
		collectionName = "transcripts"
	}
	return &MongoTranscriptRepository{
		collection: db.Collection(collectionName),
	}
}

// EnsureIndexes creates the created_at index used by Recent.
func (r *MongoTranscriptRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("repository: create transcript index: %w", err)
	}

	return nil
}

func (r *MongoTranscriptRepository) Save(ctx context.Context, t model.Transcript) error {
	filter := bson.M{"_id": t.ID}
	update := bson.M{"$set": t}
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("repository: upsert transcript %q: %w", t.ID, err)
	}

	return nil
}

func (r *MongoTranscriptRepository) Recent(ctx context.Context, q RecentQuery) ([]model.Transcript, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(clampLimit(q.Limit)))

	cursor, err := r.collection.Find(ctx, recentFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("repository: find transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	transcripts := []model.Transcript{}
	if err := cursor.All(ctx, &transcripts); err != nil {
		return nil, fmt.Errorf("repository: decode transcripts: %w", err)
	}

	return transcripts, nil
}

func recentFilter(q RecentQuery) bson.M {
	if !q.FailedOnly {
		return bson.M{}
	}

	return bson.M{"failure_kind": bson.M{"$nin": bson.A{"", "none"}}}
}
