package models

// IndexStats reports what one successful indexing run wrote.
type IndexStats struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// Citation attributes an answer to a source page. Citations are deduplicated
// by URL and ordered by first appearance among retrieved chunks, which equals
// descending relevance.
type Citation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Answer is the result of a RAG query.
type Answer struct {
	Answer     string     `json:"answer"`
	Sources    []Citation `json:"sources"`
	ChunksUsed int        `json:"chunks_used"`
}

// SourceInfo describes one indexed source URL and how many chunks it owns.
type SourceInfo struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}
