package source

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"mvdan.cc/xurls/v2"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	fetchTimeout    = 20 * time.Second
	maxPageBytes    = 5 << 20
	maxExtractRunes = 16000
)

// Document is text pulled out of a web page or the newest item of a feed.
type Document struct {
	URL   string
	Title string
	Text  string
}

// Extractor turns a URL into plain text suitable for summarization.
type Extractor struct {
	client     *http.Client
	feedParser *gofeed.Parser
	urlRe      *regexp.Regexp
	log        *slog.Logger
}

func NewExtractor(client *http.Client, log *slog.Logger) (*Extractor, error) {
	urlRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return nil, fmt.Errorf("create regexp: %w", err)
	}

	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	return &Extractor{
		client:     client,
		feedParser: gofeed.NewParser(),
		urlRe:      urlRe,
		log:        log,
	}, nil
}

// SingleURL reports whether text consists of exactly one http(s) URL.
func (e *Extractor) SingleURL(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	loc := e.urlRe.FindStringIndex(text)
	if loc == nil || loc[0] != 0 || loc[1] != len(text) {
		return "", false
	}

	return text, true
}

// Extract downloads rawURL and returns its readable text. Feeds (RSS, Atom,
// JSON Feed) yield their newest item, public Telegram channel links yield the
// linked or newest post, and anything else is treated as HTML.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Document, error) {
	if target, ok := parseTelegramURL(rawURL); ok {
		return e.fromTelegram(ctx, target)
	}

	body, err := e.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if doc, ok := e.fromFeed(ctx, rawURL, body); ok {
		return doc, nil
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	text := pageText(page)
	if text == "" {
		return nil, fmt.Errorf("no readable text (URL = %s)", rawURL)
	}

	return &Document{
		URL:   rawURL,
		Title: pageTitle(page),
		Text:  truncateRunes(text, maxExtractRunes),
	}, nil
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req) //nolint:gosec // URL is supplied by an allowed user.
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			e.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", rawURL,
				"operation", "fetch")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func (e *Extractor) fromFeed(ctx context.Context, rawURL string, body []byte) (*Document, bool) {
	feed, err := e.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		if !errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			e.log.DebugContext(ctx, "Body is not a parsable feed",
				"error", err,
				"url", rawURL)
		}
		return nil, false
	}

	item := newestItem(feed.Items)
	if item == nil {
		return nil, false
	}

	text := fragmentText(cmp.Or(item.Content, item.Description))
	if text == "" {
		return nil, false
	}

	return &Document{
		URL:   cmp.Or(strings.TrimSpace(item.Link), rawURL),
		Title: strings.TrimSpace(item.Title),
		Text:  truncateRunes(text, maxExtractRunes),
	}, true
}

func newestItem(items []*gofeed.Item) *gofeed.Item {
	items = slices.DeleteFunc(slices.Clone(items), func(it *gofeed.Item) bool { return it == nil })
	if len(items) == 0 {
		return nil
	}

	return slices.MaxFunc(items, func(a, b *gofeed.Item) int {
		return itemTime(a).Compare(itemTime(b))
	})
}

func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return *item.PublishedParsed
	case item.UpdatedParsed != nil:
		return *item.UpdatedParsed
	default:
		return time.Time{}
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
