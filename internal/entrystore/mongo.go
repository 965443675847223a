package entrystore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// MongoStore implements Store for Mongo-backed CMS deployments.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects using the configured URI.
func NewMongoStore(cfg config.DatabaseConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the mongo client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Name),
	}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Entries(ctx context.Context, collection string) ([]models.StoredEntry, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(bson.M{"title": 1, "slug": 1})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var entries []models.StoredEntry
	for cursor.Next(ctx) {
		var doc struct {
			Title string `bson:"title"`
			Slug  string `bson:"slug"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		entries = append(entries, models.StoredEntry{Title: doc.Title, Slug: doc.Slug})
	}
	return entries, cursor.Err()
}

func (s *MongoStore) UpdateTimestamps(ctx context.Context, collection, slug string, ts models.PostTimestamps) error {
	if err := checkCollection(collection); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"created_at":   ts.Created,
		"updated_at":   ts.Modified,
		"published_at": ts.Published,
	}}
	_, err := s.db.Collection(collection).UpdateMany(ctx, bson.M{"slug": slug}, update)
	if err != nil {
		return fmt.Errorf("failed to update timestamps for %s slug %s: %w", collection, slug, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
