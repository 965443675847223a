// Package entrystore reads and updates content entries directly in the CMS
// database. The content API stamps creation timestamps itself, so the
// timestamp backfill has to write below it.
package entrystore

import (
	"context"
	"fmt"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// Store is direct access to the CMS content tables.
type Store interface {
	// Ping verifies the connection before a run starts.
	Ping(ctx context.Context) error
	// Entries lists id, title and slug of every row in a collection.
	Entries(ctx context.Context, collection string) ([]models.StoredEntry, error)
	// UpdateTimestamps overwrites the created/updated/published timestamps
	// of the entry with the given stored slug. Only timestamp fields are
	// touched.
	UpdateTimestamps(ctx context.Context, collection, slug string, ts models.PostTimestamps) error
	Close() error
}

// NewStore creates a store for the configured database client.
func NewStore(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Client {
	case "postgres":
		return NewPostgresStore(cfg)
	case "sqlite":
		return NewSQLiteStore(cfg)
	case "mongo":
		return NewMongoStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported database client: %s", cfg.Client)
	}
}

var knownCollections = map[string]bool{
	models.KindArticle.Collection():       true,
	models.KindKnowledgebase.Collection(): true,
}

func checkCollection(collection string) error {
	if !knownCollections[collection] {
		return fmt.Errorf("unknown collection: %s", collection)
	}
	return nil
}
