package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"beatline/internal/model"
)

// HistoryRepo handles MongoDB operations for finished-match records
type HistoryRepo interface {
	Save(ctx context.Context, record *model.MatchRecord) error
	GetBySession(ctx context.Context, sessionID string) (*model.MatchRecord, error)
	ListRecent(ctx context.Context, limit int) ([]model.MatchRecord, error)
}

type historyRepo struct {
	matches *mongo.Collection
}

// NewHistoryRepo creates a new history repository
func NewHistoryRepo(db *mongo.Database) HistoryRepo {
	return &historyRepo{
		matches: db.Collection("matches"),
	}
}

func (r *historyRepo) Save(ctx context.Context, record *model.MatchRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.matches.ReplaceOne(ctx, bson.M{"sessionId": record.SessionID}, record, opts)
	return err
}

func (r *historyRepo) GetBySession(ctx context.Context, sessionID string) (*model.MatchRecord, error) {
	var record model.MatchRecord
	err := r.matches.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *historyRepo) ListRecent(ctx context.Context, limit int) ([]model.MatchRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "finishedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.matches.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.MatchRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
