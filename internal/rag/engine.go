package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/embedding"
	"github.com/pagelens/pagelens/internal/llm"
	"github.com/pagelens/pagelens/internal/models"
	"github.com/pagelens/pagelens/internal/vector"
)

const systemPrompt = "You are a helpful assistant that answers questions based on scraped website content. Always cite your sources."

const promptTemplate = `You are a helpful assistant that answers questions based on the provided context from scraped websites.

Context from indexed websites:
%s

Question: %s

Instructions:
- Answer the question based ONLY on the provided context
- If the context doesn't contain enough information to answer, say so
- Be concise and accurate
- Mention which source(s) you used in your answer

Answer:`

// Engine indexes scraped pages into the vector store and answers
// questions grounded in the retrieved chunks.
type Engine struct {
	store       vector.Store
	embedder    embedding.Embedder
	generator   llm.Client
	chunker     *Chunker
	defaultTopK int
	maxTopK     int
	logger      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTopK sets the default and maximum number of chunks retrieved per question.
func WithTopK(defaultTopK, maxTopK int) Option {
	return func(e *Engine) {
		if defaultTopK > 0 {
			e.defaultTopK = defaultTopK
		}
		if maxTopK > 0 {
			e.maxTopK = maxTopK
		}
	}
}

// NewEngine creates an Engine over the given store, embedder and generator.
func NewEngine(store vector.Store, embedder embedding.Embedder, generator llm.Client, chunker *Chunker, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		embedder:    embedder,
		generator:   generator,
		chunker:     chunker,
		defaultTopK: 5,
		maxTopK:     50,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index chunks a scraped page, embeds the chunks and writes them to the
// vector store. Any chunks already indexed for the same URL are removed
// first, so re-indexing a shrunk page leaves no stale chunks behind.
func (e *Engine) Index(ctx context.Context, page *models.ScrapedPage) (*models.IndexStats, error) {
	text := buildText(page)
	chunks := e.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	vectors, err := e.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	if _, err := e.store.Delete(ctx, func(m vector.ChunkMeta) bool {
		return m.SourceURL == page.URL
	}); err != nil {
		return nil, fmt.Errorf("remove stale chunks: %w", err)
	}

	entries := make([]vector.Entry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = vector.Entry{
			ID:     fmt.Sprintf("%s_%d", page.URL, i),
			Vector: vectors[i],
			Text:   chunk,
			Meta: vector.ChunkMeta{
				SourceURL:   page.URL,
				ChunkIndex:  i,
				Title:       page.Metadata.Title,
				TotalChunks: len(chunks),
			},
		}
	}
	if err := e.store.Upsert(ctx, entries); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	e.logger.Info("indexed page",
		zap.String("url", page.URL),
		zap.Int("chunks", len(chunks)))

	return &models.IndexStats{
		URL:           page.URL,
		Title:         titleOrUnknown(page.Metadata.Title),
		ChunksIndexed: len(chunks),
	}, nil
}

// Ask retrieves the chunks most relevant to question and generates a
// grounded answer with deduplicated source citations. topK <= 0 uses
// the default; values above the maximum are clamped.
func (e *Engine) Ask(ctx context.Context, question string, topK int) (*models.Answer, error) {
	if !e.generator.Configured() {
		return nil, ErrNotConfigured
	}

	count, err := e.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count indexed chunks: %w", err)
	}
	if count == 0 {
		return nil, ErrNothingIndexed
	}

	if topK <= 0 {
		topK = e.defaultTopK
	}
	if topK > e.maxTopK {
		topK = e.maxTopK
	}
	if topK > count {
		topK = count
	}

	qvec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := e.store.Query(ctx, qvec, topK)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoRelevantContent
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source %d: %s]\n%s", i+1, r.Meta.SourceURL, r.Text)
	}

	answer, err := e.generator.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(promptTemplate, sb.String(), question)},
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	var sources []models.Citation
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Meta.SourceURL] {
			continue
		}
		seen[r.Meta.SourceURL] = true
		sources = append(sources, models.Citation{
			URL:   r.Meta.SourceURL,
			Title: titleOrUnknown(r.Meta.Title),
		})
	}

	e.logger.Debug("answered question",
		zap.Int("chunks_used", len(results)),
		zap.Int("sources", len(sources)))

	return &models.Answer{
		Answer:     answer,
		Sources:    sources,
		ChunksUsed: len(results),
	}, nil
}

// Sources lists every indexed URL with its title and chunk count, in
// first-indexed order.
func (e *Engine) Sources(ctx context.Context) ([]models.SourceInfo, error) {
	metas, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	byURL := make(map[string]int)
	var sources []models.SourceInfo
	for _, m := range metas {
		if i, ok := byURL[m.SourceURL]; ok {
			sources[i].ChunkCount++
			continue
		}
		byURL[m.SourceURL] = len(sources)
		sources = append(sources, models.SourceInfo{
			URL:        m.SourceURL,
			Title:      titleOrUnknown(m.Title),
			ChunkCount: 1,
		})
	}
	return sources, nil
}

// DeleteSource removes every chunk indexed for url and returns how many
// were deleted. Unknown URLs yield ErrSourceNotFound.
func (e *Engine) DeleteSource(ctx context.Context, url string) (int, error) {
	deleted, err := e.store.Delete(ctx, func(m vector.ChunkMeta) bool {
		return m.SourceURL == url
	})
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	if len(deleted) == 0 {
		return 0, ErrSourceNotFound
	}
	e.logger.Info("deleted source", zap.String("url", url), zap.Int("chunks", len(deleted)))
	return len(deleted), nil
}

// Clear removes all indexed content.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	e.logger.Info("cleared all indexed content")
	return nil
}

// Count returns the number of indexed chunks.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// buildText flattens a scraped page into the text blob that gets chunked:
// title and description first, then every heading, then the paragraphs,
// all joined with blank lines.
func buildText(page *models.ScrapedPage) string {
	var parts []string
	if page.Metadata.Title != "" {
		parts = append(parts, "Title: "+page.Metadata.Title)
	}
	if page.Metadata.Description != "" {
		parts = append(parts, "Description: "+page.Metadata.Description)
	}
	for _, h := range page.Headings {
		parts = append(parts, "Heading: "+h.Text)
	}
	parts = append(parts, page.Paragraphs...)
	return strings.Join(parts, "\n\n")
}

func titleOrUnknown(title string) string {
	if title == "" {
		return "Unknown"
	}
	return title
}
