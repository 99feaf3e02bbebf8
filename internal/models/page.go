// Package models defines core data structures for scraped pages, queries, and answers.
package models

import "time"

// Heading is a single page heading with its level (1-6) in document order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link is an anchor extracted from a page, resolved to an absolute URL.
type Link struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

// Image is an image reference extracted from a page.
type Image struct {
	URL   string `json:"url"`
	Alt   string `json:"alt,omitempty"`
	Title string `json:"title,omitempty"`
}

// Table is a table extracted from a page. Headers may be empty when the
// table has no header row.
type Table struct {
	Index   int        `json:"index"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// PageMetadata holds document metadata from the page head.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords,omitempty"`
	Author      string `json:"author,omitempty"`
}

// PageLinks groups links by whether they point to the page's own host.
type PageLinks struct {
	Internal []Link `json:"internal"`
	External []Link `json:"external"`
}

// PageStats summarizes extracted content counts.
type PageStats struct {
	Images     int `json:"total_images"`
	Links      int `json:"total_links"`
	Tables     int `json:"total_tables"`
	Headings   int `json:"total_headings"`
	Paragraphs int `json:"total_paragraphs"`
}

// ScrapedPage is everything extracted from a single URL. It is immutable once
// handed to the RAG engine.
type ScrapedPage struct {
	URL        string       `json:"url"`
	Metadata   PageMetadata `json:"metadata"`
	Headings   []Heading    `json:"headings"`
	Paragraphs []string     `json:"paragraphs"`
	Images     []Image      `json:"images"`
	Links      PageLinks    `json:"links"`
	Tables     []Table      `json:"tables"`
	Stats      PageStats    `json:"stats"`
}

// ScrapeRecord is a persisted scrape, stored independently of indexing status.
type ScrapeRecord struct {
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	Title        string       `json:"title"`
	Page         *ScrapedPage `json:"page"`
	IndexedInRAG bool         `json:"indexed_in_rag"`
	ScrapedAt    time.Time    `json:"scraped_at"`
}

// ScrapeStats summarizes the document store.
type ScrapeStats struct {
	Total      int64 `json:"total_scrapes"`
	Indexed    int64 `json:"indexed_in_rag"`
	NotIndexed int64 `json:"not_indexed"`
}
