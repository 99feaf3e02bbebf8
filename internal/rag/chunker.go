// Package rag provides chunking, indexing, retrieval, and grounded answer
// generation over scraped page content.
package rag

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators orders split points from coarsest to finest: paragraph
// breaks, line breaks, sentence boundaries, spaces, and finally raw character
// cuts. A piece that still exceeds the size limit is re-split with the next
// separator in the list.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits text into overlapping chunks to a maximum character length.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewChunker creates a chunker with the given size and overlap (in characters).
// Overlap is clamped below chunkSize so the merge window always advances.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Chunk splits text into non-empty chunks of at most chunkSize characters.
// A single unsplittable run longer than chunkSize is returned as-is.
// Empty or whitespace-only input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return c.split(text, c.separators)
}

// split divides text on the coarsest separator present, merges small pieces
// back together under the size limit with overlap, and recurses into pieces
// that are still too large using the remaining finer separators.
func (c *Chunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var finer []string
	for i, s := range separators {
		if s == "" {
			sep = ""
			finer = nil
			break
		}
		if strings.Contains(text, s) {
			sep = s
			finer = separators[i+1:]
			break
		}
	}

	pieces := splitWithSeparator(text, sep, c.chunkSize)

	var chunks []string
	var pending []string
	for _, piece := range pieces {
		if len(piece) <= c.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, c.merge(pending)...)
			pending = nil
		}
		if len(finer) == 0 {
			// Unsplittable atomic run over the limit; keep it whole.
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, c.split(piece, finer)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, c.merge(pending)...)
	}
	return chunks
}

// merge concatenates consecutive pieces into chunks no longer than chunkSize,
// carrying an overlap-sized tail of pieces into the next chunk. Separators are
// already attached to the tail of each piece, so pieces join directly.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0
	for _, piece := range pieces {
		if total+len(piece) > c.chunkSize && total > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > c.chunkOverlap || (total+len(piece) > c.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
	}
	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitWithSeparator splits text on sep, keeping the separator attached to the
// end of the preceding piece so text can be reassembled by concatenation.
// The empty separator cuts the text into raw segments of at most maxLen bytes,
// never splitting a multi-byte rune.
func splitWithSeparator(text, sep string, maxLen int) []string {
	if sep == "" {
		var out []string
		for len(text) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(text)
			}
			out = append(out, text[:cut])
			text = text[cut:]
		}
		if text != "" {
			out = append(out, text)
		}
		return out
	}
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
