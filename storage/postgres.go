package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"vidsync/catalog"
)

// PostgresStore implements Store on a Postgres database. The upsert's
// update clause deliberately never names the user-owned columns, so
// favorite and playback_position survive every remote merge.
type PostgresStore struct {
	db *sql.DB
}

var pgMigration = []string{
	`CREATE TABLE record (
    content_id VARCHAR(64) PRIMARY KEY,
    id UUID NOT NULL,
    title TEXT NOT NULL,
    published_at TIMESTAMPTZ NOT NULL,
    thumbnail_url TEXT NOT NULL DEFAULT '',
    view_count VARCHAR(32) NOT NULL DEFAULT '',
    like_count VARCHAR(32) NOT NULL DEFAULT '',
    duration VARCHAR(16) NOT NULL DEFAULT '',
    favorite BOOLEAN NOT NULL DEFAULT FALSE,
    playback_position DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX record_published_at ON record (published_at DESC)`,
}

// NewPostgresStore opens a Postgres-backed store and applies pending
// migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(pgMigration); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// migrate applies the statements of wanted that have not run yet,
// recording each in a migration table.
func (s *PostgresStore) migrate(wanted []string) error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`)
	if err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}

	rows, err := s.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}
	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			rows.Close()
			return &StorageError{Op: "migrate", Err: err}
		}
		existing = append(existing, query)
	}
	rows.Close()

	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}

	for _, query := range missing {
		if _, err := s.db.Exec(query); err != nil {
			return &StorageError{Op: "migrate", Err: err}
		}
		if _, err := s.db.Exec(`INSERT INTO migration (query) VALUES ($1)`, query); err != nil {
			return &StorageError{Op: "migrate", Err: err}
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	if len(wanted) < len(existing) {
		return nil, fmt.Errorf("not enough migrations")
	}

	needed := []string{}
	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want != existing[i]:
			return nil, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}

// UpsertMerge merges one envelope pair into the store.
func (s *PostgresStore) UpsertMerge(ctx context.Context, listing, detail *catalog.Envelope) ([]Record, error) {
	candidates := MergeRecords(listing, detail)
	if len(candidates) == 0 {
		return []Record{}, nil
	}

	written := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		row := s.db.QueryRowContext(ctx, `
INSERT INTO record
(content_id, id, title, published_at, thumbnail_url, view_count, like_count, duration, favorite, playback_position, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, 0, $9, $9)
ON CONFLICT (content_id) DO UPDATE SET
    title = EXCLUDED.title,
    published_at = EXCLUDED.published_at,
    thumbnail_url = EXCLUDED.thumbnail_url,
    view_count = EXCLUDED.view_count,
    like_count = EXCLUDED.like_count,
    duration = EXCLUDED.duration,
    updated_at = EXCLUDED.updated_at
RETURNING id, favorite, playback_position, created_at, updated_at`,
			c.ContentID, c.ID, c.Title, c.PublishedAt, c.ThumbnailURL,
			c.ViewCount, c.LikeCount, c.Duration, c.UpdatedAt)

		record := c
		if err := row.Scan(&record.ID, &record.Favorite, &record.PlaybackPosition,
			&record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, &StorageError{Op: "upsert", ID: c.ContentID, Err: err}
		}
		written = append(written, record)
	}

	return written, nil
}

// Get retrieves a record by content id.
func (s *PostgresStore) Get(ctx context.Context, contentID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT content_id, id, title, published_at, thumbnail_url, view_count, like_count, duration, favorite, playback_position, created_at, updated_at
FROM record WHERE content_id = $1`, contentID)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, &StorageError{Op: "read", ID: contentID, Err: err}
	}
	return record, nil
}

// Search returns records whose title contains substring, case-insensitive,
// newest first.
func (s *PostgresStore) Search(ctx context.Context, substring string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT content_id, id, title, published_at, thumbnail_url, view_count, like_count, duration, favorite, playback_position, created_at, updated_at
FROM record
WHERE title ILIKE '%' || $1 || '%'
ORDER BY published_at DESC, content_id`, substring)
	if err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, &StorageError{Op: "search", Err: err}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// MarkPosition saves a playback position. Unknown ids are a no-op.
func (s *PostgresStore) MarkPosition(ctx context.Context, contentID string, seconds float64) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE record SET playback_position = $2, updated_at = NOW() WHERE content_id = $1`,
		contentID, seconds)
	if err != nil {
		return &StorageError{Op: "mark", ID: contentID, Err: err}
	}
	return nil
}

// SetFavorite flags or unflags a record. Unknown ids are a no-op.
func (s *PostgresStore) SetFavorite(ctx context.Context, contentID string, favorite bool) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE record SET favorite = $2, updated_at = NOW() WHERE content_id = $1`,
		contentID, favorite)
	if err != nil {
		return &StorageError{Op: "favorite", ID: contentID, Err: err}
	}
	return nil
}

// Count returns the number of records in the store.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM record`).Scan(&count); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	err := row.Scan(&r.ContentID, &r.ID, &r.Title, &r.PublishedAt, &r.ThumbnailURL,
		&r.ViewCount, &r.LikeCount, &r.Duration, &r.Favorite, &r.PlaybackPosition,
		&r.CreatedAt, &r.UpdatedAt)
	return r, err
}
