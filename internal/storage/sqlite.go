package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pagelens/pagelens/internal/models"
)

// SQLiteStorage implements Storage using SQLite. The full scraped page is
// stored as a JSON blob alongside indexed columns for lookup.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrapes (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT,
		page TEXT NOT NULL,
		indexed_in_rag INTEGER NOT NULL DEFAULT 0,
		scraped_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scrapes_url ON scrapes(url);
	CREATE INDEX IF NOT EXISTS idx_scrapes_scraped_at ON scrapes(scraped_at);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveScrape inserts a record, assigning an ID and timestamp if unset.
func (s *SQLiteStorage) SaveScrape(ctx context.Context, rec *models.ScrapeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ScrapedAt.IsZero() {
		rec.ScrapedAt = time.Now().UTC()
	}
	pageJSON, err := json.Marshal(rec.Page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scrapes (id, url, title, page, indexed_in_rag, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.Title, string(pageJSON), rec.IndexedInRAG, rec.ScrapedAt,
	)
	return err
}

// GetScrape returns a record by ID.
func (s *SQLiteStorage) GetScrape(ctx context.Context, id string) (*models.ScrapeRecord, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, url, title, page, indexed_in_rag, scraped_at
		 FROM scrapes WHERE id = ?`, id,
	))
}

// GetScrapeByURL returns the most recent record for a URL.
func (s *SQLiteStorage) GetScrapeByURL(ctx context.Context, url string) (*models.ScrapeRecord, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, url, title, page, indexed_in_rag, scraped_at
		 FROM scrapes WHERE url = ? ORDER BY scraped_at DESC LIMIT 1`, url,
	))
}

func (s *SQLiteStorage) scanOne(row *sql.Row) (*models.ScrapeRecord, error) {
	var rec models.ScrapeRecord
	var pageJSON string
	err := row.Scan(&rec.ID, &rec.URL, &rec.Title, &pageJSON, &rec.IndexedInRAG, &rec.ScrapedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(pageJSON), &rec.Page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page: %w", err)
	}
	return &rec, nil
}

// ListScrapes returns records newest first with limit and skip.
func (s *SQLiteStorage) ListScrapes(ctx context.Context, limit, skip int) ([]*models.ScrapeRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, page, indexed_in_rag, scraped_at
		 FROM scrapes ORDER BY scraped_at DESC LIMIT ? OFFSET ?`,
		limit, skip,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.ScrapeRecord
	for rows.Next() {
		var rec models.ScrapeRecord
		var pageJSON string
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Title, &pageJSON, &rec.IndexedInRAG, &rec.ScrapedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(pageJSON), &rec.Page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page: %w", err)
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// UpdateRAGStatus flips the indexed_in_rag flag on a record.
func (s *SQLiteStorage) UpdateRAGStatus(ctx context.Context, id string, indexed bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE scrapes SET indexed_in_rag = ? WHERE id = ?`, indexed, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteScrape removes a record by ID.
func (s *SQLiteStorage) DeleteScrape(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scrapes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats returns total, indexed and not-indexed counts.
func (s *SQLiteStorage) Stats(ctx context.Context) (*models.ScrapeStats, error) {
	var stats models.ScrapeStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(indexed_in_rag), 0) FROM scrapes`,
	).Scan(&stats.Total, &stats.Indexed)
	if err != nil {
		return nil, err
	}
	stats.NotIndexed = stats.Total - stats.Indexed
	return &stats, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
