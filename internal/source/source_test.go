package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articleHTML = `<!doctype html>
<html>
<head>
  <title>Fallback title</title>
  <meta property="og:title" content="Example Article">
</head>
<body>
  <nav><p>Home | About</p></nav>
  <article>
    <h1>Example Article</h1>
    <p>First   paragraph
       of the article.</p>
    <p></p>
    <p>Second paragraph.</p>
  </article>
  <footer><p>Copyright</p></footer>
  <script>var p = "<p>not text</p>";</script>
</body>
</html>`

const rssXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Feed</title>
  <link>https://example.test/</link>
  <description>Feed</description>
  <item>
    <title>Older post</title>
    <link>https://example.test/older</link>
    <pubDate>Mon, 06 Jan 2025 10:00:00 +0000</pubDate>
    <description>Older text.</description>
  </item>
  <item>
    <title>Newest post</title>
    <link>https://example.test/newest</link>
    <pubDate>Wed, 08 Jan 2025 10:00:00 +0000</pubDate>
    <description><![CDATA[<p>Newest <b>bold</b> text.</p><p>More<br>lines.</p>]]></description>
  </item>
</channel>
</rss>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()

	e, err := NewExtractor(nil, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	return e
}

func serve(t *testing.T, contentType, body string, status int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected User-Agent header")
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	return server
}

func TestSingleURL(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		text string
		want bool
	}{
		{"https://example.test/article", true},
		{"  http://example.test/a?b=c  ", true},
		{"read https://example.test/article please", false},
		{"https://a.test https://b.test", false},
		{"plain text without links", false},
		{"ftp://example.test/file", false},
		{"", false},
	}

	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			got, ok := e.SingleURL(test.text)
			if ok != test.want {
				t.Fatalf("SingleURL(%q) = %q, %v; want %v", test.text, got, ok, test.want)
			}
			if ok && got != strings.TrimSpace(test.text) {
				t.Fatalf("unexpected URL: %q", got)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	server := serve(t, "text/html", articleHTML, http.StatusOK)
	e := newTestExtractor(t)

	doc, err := e.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if doc.Title != "Example Article" {
		t.Fatalf("unexpected title: %q", doc.Title)
	}

	want := "First paragraph of the article.\n\nSecond paragraph."
	if doc.Text != want {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
	if doc.URL != server.URL {
		t.Fatalf("unexpected URL: %q", doc.URL)
	}
}

func TestExtractHTMLFallsBackToDescription(t *testing.T) {
	page := `<html><head><meta name="description" content="Only a  description."></head><body><div></div></body></html>`
	server := serve(t, "text/html", page, http.StatusOK)

	doc, err := newTestExtractor(t).Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if doc.Text != "Only a description." {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestExtractFeedUsesNewestItem(t *testing.T) {
	server := serve(t, "application/rss+xml", rssXML, http.StatusOK)

	doc, err := newTestExtractor(t).Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if doc.Title != "Newest post" {
		t.Fatalf("unexpected title: %q", doc.Title)
	}
	if doc.URL != "https://example.test/newest" {
		t.Fatalf("unexpected URL: %q", doc.URL)
	}
	if doc.Text != "Newest bold text.\n\nMore lines." {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}

func TestExtractRejectsBadStatus(t *testing.T) {
	server := serve(t, "text/html", "gone", http.StatusNotFound)

	if _, err := newTestExtractor(t).Extract(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 404 page")
	}
}

func TestExtractRejectsEmptyPage(t *testing.T) {
	server := serve(t, "text/html", "<html><body>   </body></html>", http.StatusOK)

	if _, err := newTestExtractor(t).Extract(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for empty page")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("привет", 3); got != "при" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateRunes("ok", 3); got != "ok" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
