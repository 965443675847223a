package entrystore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// SQLiteStore implements Store against the CMS's development database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the configured sqlite database file.
func NewSQLiteStore(cfg config.DatabaseConfig) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Filename, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Entries(ctx context.Context, collection string) ([]models.StoredEntry, error) {
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

func (s *SQLiteStore) UpdateTimestamps(ctx context.Context, collection, slug string, ts models.PostTimestamps) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"UPDATE %s SET created_at = ?, updated_at = ?, published_at = ? WHERE slug = ?",
		collection)
	_, err := s.db.ExecContext(ctx, query, ts.Created, ts.Modified, ts.Published, slug)
	if err != nil {
		return fmt.Errorf("failed to update timestamps for %s slug %s: %w", collection, slug, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
