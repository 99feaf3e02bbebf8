package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testHTML = `<!DOCTYPE html>
<html>
<head>
  <title>  Test Page  </title>
  <meta name="description" content="A page for testing">
  <meta name="keywords" content="test, page">
  <meta name="author" content="Jordan">
</head>
<body>
  <h1>Main Heading</h1>
  <h2>Sub Heading</h2>
  <h3></h3>
  <p>First paragraph with <b>bold</b> text.</p>
  <p>   </p>
  <p>Second paragraph.</p>
  <img src="/logo.png" alt="Logo">
  <img alt="no source">
  <a href="/about" title="About us">About</a>
  <a href="https://other.example/page">Elsewhere</a>
  <a href="#section">Skip me</a>
  <table>
    <tr><th>Name</th><th>Age</th></tr>
    <tr><td>Ada</td><td>36</td></tr>
    <tr><td>Alan</td><td>41</td></tr>
  </table>
  <table><tr><th>Empty</th></tr></table>
  <script>document.write("invisible");</script>
</body>
</html>`

func newTestScraper() *Scraper {
	return NewScraper("test-agent", 5*time.Second, 0)
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte(testHTML))
	}))
	defer srv.Close()

	page, err := newTestScraper().Scrape(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	if page.Metadata.Title != "Test Page" {
		t.Errorf("Title = %q", page.Metadata.Title)
	}
	if page.Metadata.Description != "A page for testing" {
		t.Errorf("Description = %q", page.Metadata.Description)
	}
	if page.Metadata.Keywords != "test, page" || page.Metadata.Author != "Jordan" {
		t.Errorf("metadata = %+v", page.Metadata)
	}

	if len(page.Headings) != 2 {
		t.Fatalf("Headings = %+v, want 2 (empty skipped)", page.Headings)
	}
	if page.Headings[0].Level != 1 || page.Headings[0].Text != "Main Heading" {
		t.Errorf("Headings[0] = %+v", page.Headings[0])
	}
	if page.Headings[1].Level != 2 || page.Headings[1].Text != "Sub Heading" {
		t.Errorf("Headings[1] = %+v", page.Headings[1])
	}

	if len(page.Paragraphs) != 2 {
		t.Fatalf("Paragraphs = %+v, want 2 (blank skipped)", page.Paragraphs)
	}
	if page.Paragraphs[0] != "First paragraph with bold text." {
		t.Errorf("Paragraphs[0] = %q", page.Paragraphs[0])
	}

	if len(page.Images) != 1 {
		t.Fatalf("Images = %+v, want 1 (missing src skipped)", page.Images)
	}
	if page.Images[0].URL != srv.URL+"/logo.png" || page.Images[0].Alt != "Logo" {
		t.Errorf("Images[0] = %+v", page.Images[0])
	}

	if len(page.Links.Internal) != 1 || len(page.Links.External) != 1 {
		t.Fatalf("Links = %+v, want 1 internal + 1 external", page.Links)
	}
	if page.Links.Internal[0].URL != srv.URL+"/about" || page.Links.Internal[0].Title != "About us" {
		t.Errorf("internal link = %+v", page.Links.Internal[0])
	}
	if page.Links.External[0].URL != "https://other.example/page" {
		t.Errorf("external link = %+v", page.Links.External[0])
	}

	if len(page.Tables) != 1 {
		t.Fatalf("Tables = %+v, want 1 (rowless skipped)", page.Tables)
	}
	tbl := page.Tables[0]
	if tbl.Index != 1 || len(tbl.Headers) != 2 || tbl.Headers[0] != "Name" {
		t.Errorf("table headers = %+v", tbl)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "Ada" || tbl.Rows[1][1] != "41" {
		t.Errorf("table rows = %+v", tbl.Rows)
	}

	if page.Stats.Paragraphs != 2 || page.Stats.Headings != 2 || page.Stats.Links != 2 ||
		page.Stats.Images != 1 || page.Stats.Tables != 1 {
		t.Errorf("Stats = %+v", page.Stats)
	}
}

const tableHTML = `<!DOCTYPE html>
<html>
<head><title>Catalog</title></head>
<body>
  <table>
    <tr><th>Item</th><th>Detail</th></tr>
    <tr><td><a href="/widgets">Widgets</a></td><td><p>In stock.</p></td></tr>
    <tr><td><img src="/widget.png" alt="Widget"></td><td>
      <table><tr><td>inner</td></tr></table>
    </td></tr>
  </table>
</body>
</html>`

func TestScrape_TableContentCollected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tableHTML))
	}))
	defer srv.Close()

	page, err := newTestScraper().Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	// Links, images and paragraphs inside table cells are still extracted.
	if len(page.Links.Internal) != 1 || page.Links.Internal[0].URL != srv.URL+"/widgets" {
		t.Errorf("Links = %+v, want the in-table link", page.Links)
	}
	if len(page.Images) != 1 || page.Images[0].Alt != "Widget" {
		t.Errorf("Images = %+v, want the in-table image", page.Images)
	}
	if len(page.Paragraphs) != 1 || page.Paragraphs[0] != "In stock." {
		t.Errorf("Paragraphs = %+v, want the in-table paragraph", page.Paragraphs)
	}

	// The nested table is a table of its own; the outer table keeps only its
	// direct rows.
	if len(page.Tables) != 2 {
		t.Fatalf("Tables = %+v, want outer and nested", page.Tables)
	}
	outer := page.Tables[0]
	if len(outer.Headers) != 2 || outer.Headers[0] != "Item" || len(outer.Rows) != 2 {
		t.Errorf("outer table = %+v", outer)
	}
	inner := page.Tables[1]
	if inner.Index != 2 || len(inner.Rows) != 1 || inner.Rows[0][0] != "inner" {
		t.Errorf("inner table = %+v", inner)
	}
}

func TestScrape_InvalidURL(t *testing.T) {
	s := newTestScraper()
	ctx := context.Background()

	for _, bad := range []string{"", "not a url", "ftp://example.com/file", "/relative/path"} {
		if _, err := s.Scrape(ctx, bad); err == nil {
			t.Errorf("Scrape(%q) should fail", bad)
		}
	}
}

func TestScrape_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestScraper().Scrape(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "failed to fetch webpage") {
		t.Errorf("err = %v", err)
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://example.com/page?q=1"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if err := ValidateURL("javascript:alert(1)"); err == nil {
		t.Error("javascript scheme accepted")
	}
}
