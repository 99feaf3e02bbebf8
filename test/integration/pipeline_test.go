// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pagelens/pagelens/internal/embedding"
	"github.com/pagelens/pagelens/internal/keyword"
	"github.com/pagelens/pagelens/internal/llm"
	"github.com/pagelens/pagelens/internal/models"
	"github.com/pagelens/pagelens/internal/rag"
	"github.com/pagelens/pagelens/internal/scrape"
	"github.com/pagelens/pagelens/internal/storage"
	"github.com/pagelens/pagelens/internal/vector"
)

const pipelineHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Honey Facts</title>
  <meta name="description" content="Everything about honey.">
</head>
<body>
  <h1>Honey</h1>
  <p>Honey never spoils because of its low moisture content and high acidity.</p>
  <p>Bees produce honey from the nectar of flowering plants.</p>
</body>
</html>`

func TestIntegration_ScrapeIndexAsk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	pageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(pipelineHTML))
	}))
	defer pageSrv.Close()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	kwIndex, err := keyword.NewIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	vecStore, err := vector.NewMemoryStore("integration", 16)
	if err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewMockEmbedder(16)
	generator := &llm.MockClient{Response: "Honey never spoils. [Source 1]"}
	engine := rag.NewEngine(vecStore, embedder, generator, rag.NewChunker(1000, 200))
	scraper := scrape.NewScraper("pagelens-test/1.0", 5*time.Second, 1<<20)

	page, err := scraper.Scrape(ctx, pageSrv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if page.Metadata.Title != "Honey Facts" {
		t.Errorf("title = %q, want %q", page.Metadata.Title, "Honey Facts")
	}

	rec := &models.ScrapeRecord{URL: page.URL, Title: page.Metadata.Title, Page: page}
	if err := store.SaveScrape(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := kwIndex.IndexScrape(ctx, rec); err != nil {
		t.Fatal(err)
	}
	hits, err := kwIndex.Search(ctx, "honey", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != rec.ID {
		t.Fatalf("unexpected keyword hits: %+v", hits)
	}

	stats, err := engine.Index(ctx, page)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ChunksIndexed < 1 {
		t.Fatalf("expected at least 1 chunk indexed, got %d", stats.ChunksIndexed)
	}

	answer, err := engine.Ask(ctx, "Does honey spoil?", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer.Answer, "never spoils") {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].URL != page.URL {
		t.Errorf("unexpected sources: %+v", answer.Sources)
	}

	deleted, err := engine.DeleteSource(ctx, page.URL)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != stats.ChunksIndexed {
		t.Errorf("deleted %d chunks, want %d", deleted, stats.ChunksIndexed)
	}
}

func TestIntegration_VectorIndexSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	indexPath := filepath.Join(dir, "vectors.bin")
	embedder := embedding.NewMockEmbedder(16)
	generator := &llm.MockClient{Response: "Bees make honey."}

	vecStore, err := vector.NewMemoryStore("integration", 16)
	if err != nil {
		t.Fatal(err)
	}
	engine := rag.NewEngine(vecStore, embedder, generator, rag.NewChunker(1000, 200))
	page := &models.ScrapedPage{
		URL:        "https://bees.example",
		Metadata:   models.PageMetadata{Title: "Bees"},
		Paragraphs: []string{"Bees produce honey from nectar."},
	}
	if _, err := engine.Index(ctx, page); err != nil {
		t.Fatal(err)
	}
	if err := vecStore.Save(indexPath); err != nil {
		t.Fatal(err)
	}

	reopened, err := vector.NewMemoryStore("integration", 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := reopened.Load(indexPath); err != nil {
		t.Fatal(err)
	}
	engine = rag.NewEngine(reopened, embedder, generator, rag.NewChunker(1000, 200))

	answer, err := engine.Ask(ctx, "What do bees make?", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].URL != page.URL {
		t.Errorf("unexpected sources after reload: %+v", answer.Sources)
	}
}
