package entrystore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// PostgresStore implements Store against the CMS's Postgres database.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to the configured Postgres database.
func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	sslMode := "disable"
	if cfg.SSL {
		sslMode = "require"
	}
	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Name, cfg.Username, cfg.Password, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Entries(ctx context.Context, collection string) ([]models.StoredEntry, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT title, slug FROM %s ORDER BY id", collection)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var entries []models.StoredEntry
	for rows.Next() {
		var e models.StoredEntry
		var title, slug sql.NullString
		if err := rows.Scan(&title, &slug); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		e.Title = title.String
		e.Slug = slug.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) UpdateTimestamps(ctx context.Context, collection, slug string, ts models.PostTimestamps) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"UPDATE %s SET created_at = $1, updated_at = $2, published_at = $3 WHERE slug = $4",
		collection)
	_, err := s.db.ExecContext(ctx, query, ts.Created, ts.Modified, ts.Published, slug)
	if err != nil {
		return fmt.Errorf("failed to update timestamps for %s slug %s: %w", collection, slug, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
