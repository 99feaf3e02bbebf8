// Package scrape fetches web pages and extracts their structured content.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/pagelens/pagelens/internal/models"
)

// Scraper fetches URLs and extracts metadata, text, links, images and tables.
type Scraper struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		s.client = client
	}
}

// NewScraper creates a Scraper. maxBodyBytes caps how much of a response
// body is read; zero means 10MB.
func NewScraper(userAgent string, timeout time.Duration, maxBodyBytes int64, opts ...Option) *Scraper {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; pagelens/1.0)"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 << 20
	}
	s := &Scraper{
		client:       &http.Client{Timeout: timeout},
		userAgent:    userAgent,
		maxBodyBytes: maxBodyBytes,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateURL checks that rawURL is an absolute http or https URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL: scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

// Scrape fetches rawURL and extracts everything into a ScrapedPage.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*models.ScrapedPage, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch webpage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch webpage: status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, s.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	base, err := url.Parse(resp.Request.URL.Scheme + "://" + resp.Request.URL.Host)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	page := s.extract(doc, rawURL, base)

	s.logger.Debug("scraped page",
		zap.String("url", rawURL),
		zap.Int("paragraphs", page.Stats.Paragraphs),
		zap.Int("links", page.Stats.Links),
		zap.Duration("elapsed", time.Since(start)))

	return page, nil
}

func (s *Scraper) extract(doc *html.Node, rawURL string, base *url.URL) *models.ScrapedPage {
	page := &models.ScrapedPage{URL: rawURL}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Metadata.Title == "" {
					page.Metadata.Title = nodeText(n)
				}
			case "meta":
				s.extractMeta(n, &page.Metadata)
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if text := nodeText(n); text != "" {
					page.Headings = append(page.Headings, models.Heading{
						Level: int(n.Data[1] - '0'),
						Text:  text,
					})
				}
			case "p":
				if text := nodeText(n); text != "" {
					page.Paragraphs = append(page.Paragraphs, text)
				}
			case "img":
				if img, ok := extractImage(n, base); ok {
					page.Images = append(page.Images, img)
				}
			case "a":
				s.extractLink(n, base, &page.Links)
			case "table":
				if table, ok := extractTable(n, len(page.Tables)+1); ok {
					page.Tables = append(page.Tables, table)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Stats = models.PageStats{
		Images:     len(page.Images),
		Links:      len(page.Links.Internal) + len(page.Links.External),
		Tables:     len(page.Tables),
		Headings:   len(page.Headings),
		Paragraphs: len(page.Paragraphs),
	}
	return page
}

func (s *Scraper) extractMeta(n *html.Node, meta *models.PageMetadata) {
	name := strings.ToLower(attr(n, "name"))
	content := attr(n, "content")
	switch name {
	case "description":
		meta.Description = content
	case "keywords":
		meta.Keywords = content
	case "author":
		meta.Author = content
	}
}

func extractImage(n *html.Node, base *url.URL) (models.Image, bool) {
	src := attr(n, "src")
	if src == "" {
		return models.Image{}, false
	}
	return models.Image{
		URL:   resolveURL(base, src),
		Alt:   attr(n, "alt"),
		Title: attr(n, "title"),
	}, true
}

func (s *Scraper) extractLink(n *html.Node, base *url.URL, links *models.PageLinks) {
	href := attr(n, "href")
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}
	absolute := resolveURL(base, href)
	link := models.Link{
		URL:   absolute,
		Text:  nodeText(n),
		Title: attr(n, "title"),
	}
	if u, err := url.Parse(absolute); err == nil && u.Host == base.Host {
		links.Internal = append(links.Internal, link)
	} else {
		links.External = append(links.External, link)
	}
}

// extractTable reads headers from thead (or a leading th row) and collects
// the data rows. Tables without data rows are skipped.
func extractTable(n *html.Node, index int) (models.Table, bool) {
	table := models.Table{Index: index}

	var rows []*html.Node
	var collectRows func(*html.Node)
	collectRows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if c.Data == "tr" {
					rows = append(rows, c)
					continue
				}
				if c.Data == "table" {
					continue
				}
			}
			collectRows(c)
		}
	}
	collectRows(n)

	for _, tr := range rows {
		var cells []string
		allHeader := true
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "th":
				cells = append(cells, nodeText(c))
			case "td":
				cells = append(cells, nodeText(c))
				allHeader = false
			}
		}
		if len(cells) == 0 {
			continue
		}
		if allHeader && len(table.Headers) == 0 && len(table.Rows) == 0 {
			table.Headers = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}

	if len(table.Rows) == 0 {
		return models.Table{}, false
	}
	return table, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText returns the visible text under n with whitespace collapsed,
// skipping script and style content.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func resolveURL(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
