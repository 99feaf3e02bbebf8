package rag

import "errors"

// The engine returns a closed set of sentinel errors so callers (the HTTP
// layer, the CLI) can map failures to transport codes with errors.Is.
var (
	// ErrNotConfigured means no generation-model credential is configured.
	ErrNotConfigured = errors.New("generation model not configured")

	// ErrNoContent means a document produced zero chunks; nothing was written.
	ErrNoContent = errors.New("no text content to index")

	// ErrNothingIndexed means the vector store holds no entries.
	ErrNothingIndexed = errors.New("no content indexed yet")

	// ErrNoRelevantContent means retrieval returned zero chunks.
	ErrNoRelevantContent = errors.New("no relevant content found")

	// ErrSourceNotFound means no chunks matched the given source URL.
	ErrSourceNotFound = errors.New("source not found")
)
