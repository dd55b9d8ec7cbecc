package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/animanga/backend/internal/models"
)

// ShowStore handles catalogue shows in MongoDB.
type ShowStore struct {
	col *mongo.Collection
}

func NewShowStore(db *mongo.Database) *ShowStore {
	return &ShowStore{col: db.Collection("shows")}
}

// EnsureIndexes makes (kind, title) unique.
func (s *ShowStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *ShowStore) FindByTitle(ctx context.Context, kind, title string) (*models.Show, error) {
	var show models.Show
	err := s.col.FindOne(ctx, bson.M{"kind": kind, "title": title}).Decode(&show)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return &show, nil
}

func (s *ShowStore) ListByKind(ctx context.Context, kind string) ([]models.Show, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "title", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var shows []models.Show
	if err := cur.All(ctx, &shows); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return shows, nil
}

// Upsert inserts show or replaces the stored show with the same kind and title.
func (s *ShowStore) Upsert(ctx context.Context, show *models.Show) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"kind": show.Kind, "title": show.Title},
		bson.M{"$set": show},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo upsert %s/%s: %w", show.Kind, show.Title, err)
	}
	return nil
}
