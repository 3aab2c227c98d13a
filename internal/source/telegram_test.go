package source

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const channelHTML = `<!doctype html>
<html>
<head><meta property="og:title" content="Example Channel"></head>
<body>
  <div class="tgme_widget_message" data-post="example_channel/10">
    <div class="tgme_widget_message_text">Older post.</div>
  </div>
  <div class="tgme_widget_message" data-post="example_channel/11">
    <div class="tgme_widget_message_text">Newest post<br>second line.</div>
    <div class="tgme_widget_message_caption">Caption.</div>
  </div>
  <div class="tgme_widget_message" data-post="example_channel/12">
    <div class="tgme_widget_message_text">   </div>
  </div>
</body>
</html>`

func TestParseTelegramURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantOK  bool
		slug    string
		postID  string
		preview string
	}{
		{"https://t.me/example_channel", true, "example_channel", "", "https://t.me/s/example_channel"},
		{"https://t.me/s/example_channel/", true, "example_channel", "", "https://t.me/s/example_channel"},
		{"https://t.me/example_channel/123?single=1", true, "example_channel", "123", "https://t.me/s/example_channel/123"},
		{"https://telegram.me/s/example_channel/7", true, "example_channel", "7", "https://t.me/s/example_channel/7"},
		{"https://t.me/abc", false, "", "", ""},
		{"https://t.me/example_channel/notanumber", false, "", "", ""},
		{"https://t.me/", false, "", "", ""},
		{"https://example.com/example_channel", false, "", "", ""},
	}

	for _, test := range tests {
		t.Run(test.raw, func(t *testing.T) {
			target, ok := parseTelegramURL(test.raw)
			if ok != test.wantOK {
				t.Fatalf("expected ok=%v, got %v", test.wantOK, ok)
			}
			if !ok {
				return
			}
			if target.slug != test.slug || target.postID != test.postID {
				t.Fatalf("unexpected target: %+v", target)
			}
			if got := target.previewURL(); got != test.preview {
				t.Fatalf("expected preview %q, got %q", test.preview, got)
			}
		})
	}
}

func TestTelegramDocument(t *testing.T) {
	tests := []struct {
		name     string
		target   telegramTarget
		wantURL  string
		wantText string
		wantErr  bool
	}{
		{
			name:     "post with caption",
			target:   telegramTarget{slug: "example_channel", postID: "11"},
			wantURL:  "https://t.me/example_channel/11",
			wantText: "Newest post\nsecond line.\nCaption.",
		},
		{
			name:     "specific post",
			target:   telegramTarget{slug: "example_channel", postID: "10"},
			wantURL:  "https://t.me/example_channel/10",
			wantText: "Older post.",
		},
		{
			name:    "missing post",
			target:  telegramTarget{slug: "example_channel", postID: "99"},
			wantErr: true,
		},
		{
			name:    "last post without text",
			target:  telegramTarget{slug: "example_channel"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(channelHTML))
			if err != nil {
				t.Fatalf("parse html: %v", err)
			}

			got, err := telegramDocument(doc, test.target)
			if test.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.URL != test.wantURL || got.Text != test.wantText || got.Title != "Example Channel" {
				t.Fatalf("unexpected document: %+v", got)
			}
		})
	}
}

// hostRewriter sends every request to server while keeping the path.
type hostRewriter struct {
	server *url.URL
	paths  []string
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	h.paths = append(h.paths, req.URL.Path)

	out := req.Clone(req.Context())
	out.URL.Scheme = h.server.Scheme
	out.URL.Host = h.server.Host
	out.Host = h.server.Host

	return http.DefaultTransport.RoundTrip(out)
}

func TestExtractTelegramChannel(t *testing.T) {
	server := serve(t, "text/html", channelHTML, http.StatusOK)

	serverURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	rewriter := &hostRewriter{server: serverURL}

	e, err := NewExtractor(&http.Client{Transport: rewriter}, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}

	doc, err := e.Extract(context.Background(), "https://t.me/example_channel/11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rewriter.paths) != 1 || rewriter.paths[0] != "/s/example_channel/11" {
		t.Fatalf("expected preview page request, got %v", rewriter.paths)
	}
	if !strings.HasPrefix(doc.Text, "Newest post") {
		t.Fatalf("unexpected text: %q", doc.Text)
	}
}
