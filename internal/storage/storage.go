// Package storage persists scrape records.
package storage

import (
	"context"
	"errors"

	"github.com/pagelens/pagelens/internal/models"
)

// ErrNotFound is returned when a scrape record does not exist.
var ErrNotFound = errors.New("scrape not found")

// Storage stores scrape records independently of their RAG indexing status.
type Storage interface {
	// SaveScrape persists a record. An empty ID is assigned and ScrapedAt
	// is set to now.
	SaveScrape(ctx context.Context, rec *models.ScrapeRecord) error
	// GetScrape returns the record with the given ID.
	GetScrape(ctx context.Context, id string) (*models.ScrapeRecord, error)
	// GetScrapeByURL returns the most recent record for a URL.
	GetScrapeByURL(ctx context.Context, url string) (*models.ScrapeRecord, error)
	// ListScrapes returns records newest first with pagination.
	ListScrapes(ctx context.Context, limit, skip int) ([]*models.ScrapeRecord, error)
	// UpdateRAGStatus flips the indexed_in_rag flag on a record.
	UpdateRAGStatus(ctx context.Context, id string, indexed bool) error
	// DeleteScrape removes a record.
	DeleteScrape(ctx context.Context, id string) error
	// Stats summarizes stored and indexed counts.
	Stats(ctx context.Context) (*models.ScrapeStats, error)
	Close() error
}
