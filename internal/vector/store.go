// Package vector provides the chunk collection: keyed vector storage with
// similarity search over embedded text chunks.
package vector

import "context"

// ChunkMeta is the metadata stored with every chunk.
type ChunkMeta struct {
	SourceURL   string `json:"source_url"`
	ChunkIndex  int    `json:"chunk_index"`
	Title       string `json:"title"`
	TotalChunks int    `json:"total_chunks"`
}

// Entry is one (id, vector, text, metadata) tuple. Upserting an existing ID
// replaces the whole tuple.
type Entry struct {
	ID     string
	Vector []float32
	Text   string
	Meta   ChunkMeta
}

// Result is a single similarity hit. Distance is cosine distance
// (1 - cosine similarity); smaller means more similar.
type Result struct {
	ID       string
	Text     string
	Meta     ChunkMeta
	Distance float64
}

// Store persists chunk entries and supports nearest-neighbor search.
// The similarity metric is fixed for the store's lifetime; changing the
// embedding model requires Reset and a full re-index.
type Store interface {
	// Upsert writes entries keyed by ID, replacing existing IDs in place.
	// Entries with empty text are rejected.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to k entries ordered by increasing distance.
	// k is clamped to the entry count; an empty store yields no results
	// and no error.
	Query(ctx context.Context, vector []float32, k int) ([]Result, error)

	// Delete removes every entry whose metadata satisfies match and returns
	// the deleted IDs.
	Delete(ctx context.Context, match func(ChunkMeta) bool) ([]string, error)

	// List returns the metadata of all entries.
	List(ctx context.Context) ([]ChunkMeta, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Reset drops all entries, recreating an empty collection.
	Reset(ctx context.Context) error

	Save(path string) error
	Load(path string) error
	Close() error
}
