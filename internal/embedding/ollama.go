package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaEmbedder produces embeddings by calling an Ollama-compatible
// /embed endpoint. Results are cached by text so repeated chunks and
// questions embed only once.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	cache      *Cache
	logger     *zap.Logger
}

// OllamaOption configures an OllamaEmbedder.
type OllamaOption func(*OllamaEmbedder)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) OllamaOption {
	return func(e *OllamaEmbedder) {
		e.logger = logger
	}
}

// WithCacheSize sets the embedding cache capacity.
func WithCacheSize(size int) OllamaOption {
	return func(e *OllamaEmbedder) {
		e.cache = NewCache(size)
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(e *OllamaEmbedder) {
		e.client = client
	}
}

// NewOllamaEmbedder creates an embedder backed by the service at baseURL
// (e.g. "http://localhost:11434/api").
func NewOllamaEmbedder(baseURL, model string, dimensions int, opts ...OllamaOption) (*OllamaEmbedder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embedding base URL cannot be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("embedding model cannot be empty")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	e := &OllamaEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: 60 * time.Second},
		cache:      NewCache(10000),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request, serving cached entries locally
// and only sending the misses upstream.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := e.cache.Get(text); ok {
			results[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	e.logger.Debug("embedding batch",
		zap.Int("total", len(texts)),
		zap.Int("cached", len(texts)-len(missing)))

	embeddings, err := e.request(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(missing) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(embeddings), len(missing))
	}
	for j, vec := range embeddings {
		if len(vec) != e.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(vec), e.dimensions)
		}
		e.cache.Set(missing[j], vec)
		results[missingIdx[j]] = vec
	}
	return results, nil
}

func (e *OllamaEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	return out.Embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OllamaEmbedder.
func (e *OllamaEmbedder) Close() error {
	return nil
}
