// Package keyword provides full-text search over scrape records using Bleve.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/pagelens/pagelens/internal/models"
)

// Result is a keyword search hit referencing a scrape record by ID.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// scrapeDoc is the shape Bleve indexes for each scrape record.
type scrapeDoc struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Index is a Bleve-backed full-text index over scrape records.
type Index struct {
	index bleve.Index
}

// NewIndex creates or opens a Bleve index at path. An empty path creates
// an in-memory index, mainly for tests. An existing index directory is
// reopened so records survive restarts.
func NewIndex(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so queries
	// match the exact words that appear on the page.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("url", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index: %w", err)
		}
		return &Index{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// IndexScrape adds or replaces a scrape record in the index.
func (b *Index) IndexScrape(ctx context.Context, rec *models.ScrapeRecord) error {
	doc := scrapeDoc{
		URL:   rec.URL,
		Title: rec.Title,
	}
	if rec.Page != nil {
		var parts []string
		for _, h := range rec.Page.Headings {
			parts = append(parts, h.Text)
		}
		parts = append(parts, rec.Page.Paragraphs...)
		doc.Content = strings.Join(parts, "\n")
	}
	return b.index.Index(rec.ID, doc)
}

// Search runs a match query over url, title and content and returns up to
// limit hits by descending score.
func (b *Index) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 50
	}
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Delete removes a scrape record from the index.
func (b *Index) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the number of indexed records.
func (b *Index) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the underlying index.
func (b *Index) Close() error {
	return b.index.Close()
}
