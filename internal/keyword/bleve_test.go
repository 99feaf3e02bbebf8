package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pagelens/pagelens/internal/models"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex("")
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func record(id, url, title string, paragraphs ...string) *models.ScrapeRecord {
	return &models.ScrapeRecord{
		ID:    id,
		URL:   url,
		Title: title,
		Page: &models.ScrapedPage{
			URL:        url,
			Paragraphs: paragraphs,
		},
	}
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.IndexScrape(ctx, record("1", "https://cats.example", "All About Cats", "Cats sleep sixteen hours a day.")); err != nil {
		t.Fatalf("IndexScrape: %v", err)
	}
	if err := idx.IndexScrape(ctx, record("2", "https://dogs.example", "All About Dogs", "Dogs enjoy long walks.")); err != nil {
		t.Fatalf("IndexScrape: %v", err)
	}

	hits, err := idx.Search(ctx, "cats", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "1" {
		t.Errorf("hits = %+v, want record 1", hits)
	}

	// Title terms are searchable too.
	hits, err = idx.Search(ctx, "dogs", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "2" {
		t.Errorf("hits = %+v, want record 2", hits)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.IndexScrape(ctx, record("1", "https://a", "Title", "text")); err != nil {
		t.Fatalf("IndexScrape: %v", err)
	}
	hits, err := idx.Search(ctx, "zebra", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %+v, want none", hits)
	}
}

func TestDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.IndexScrape(ctx, record("1", "https://a", "Title", "unique cormorant text")); err != nil {
		t.Fatalf("IndexScrape: %v", err)
	}
	if err := idx.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	hits, err := idx.Search(ctx, "cormorant", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %+v after delete", hits)
	}
	n, _ := idx.DocCount()
	if n != 0 {
		t.Errorf("DocCount = %d after delete", n)
	}
}

func TestPersistentIndexReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword.bleve")
	ctx := context.Background()

	idx, err := NewIndex(path)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := idx.IndexScrape(ctx, record("1", "https://a", "Persistent", "saved text")); err != nil {
		t.Fatalf("IndexScrape: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	hits, err := reopened.Search(ctx, "persistent", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %+v after reopen", hits)
	}
}
