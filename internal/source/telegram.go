package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const telegramHost = "t.me"

var (
	telegramSlugRe   = regexp.MustCompile(`^\w{5,32}$`)
	telegramPostIDRe = regexp.MustCompile(`^\d+$`)
)

// telegramTarget is a public channel, or one post of it when postID is set.
type telegramTarget struct {
	slug   string
	postID string
}

// parseTelegramURL accepts t.me/<slug>, t.me/s/<slug> and the same with a
// trailing /<post id>.
func parseTelegramURL(raw string) (telegramTarget, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return telegramTarget{}, false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != telegramHost && host != "telegram.me" {
		return telegramTarget{}, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if parts[0] == "s" {
		parts = parts[1:]
	}

	if len(parts) == 0 || len(parts) > 2 || !telegramSlugRe.MatchString(parts[0]) {
		return telegramTarget{}, false
	}

	target := telegramTarget{slug: parts[0]}
	if len(parts) == 2 {
		if !telegramPostIDRe.MatchString(parts[1]) {
			return telegramTarget{}, false
		}
		target.postID = parts[1]
	}

	return target, true
}

// previewURL is the public web preview that lists the channel's posts.
func (t telegramTarget) previewURL() string {
	if t.postID == "" {
		return fmt.Sprintf("https://%s/s/%s", telegramHost, t.slug)
	}

	return fmt.Sprintf("https://%s/s/%s/%s", telegramHost, t.slug, t.postID)
}

func (t telegramTarget) post() string {
	return t.slug + "/" + t.postID
}

func (e *Extractor) fromTelegram(ctx context.Context, target telegramTarget) (*Document, error) {
	body, err := e.fetch(ctx, target.previewURL())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	return telegramDocument(doc, target)
}

// telegramDocument picks the requested post, or the newest one, from a
// channel preview page.
func telegramDocument(doc *goquery.Document, target telegramTarget) (*Document, error) {
	messages := doc.Find(".tgme_widget_message")

	message := messages.Last()
	if target.postID != "" {
		message = messages.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.AttrOr("data-post", "") == target.post()
		}).First()
	}

	if message.Length() == 0 {
		return nil, errors.New("post is not found")
	}

	text := telegramMessageText(message)
	if text == "" {
		return nil, errors.New("post has no text")
	}

	postURL := fmt.Sprintf("https://%s/%s", telegramHost, target.slug)
	if post := strings.TrimSpace(message.AttrOr("data-post", "")); post != "" {
		postURL = fmt.Sprintf("https://%s/%s", telegramHost, post)
	}

	return &Document{
		URL:   postURL,
		Title: pageTitle(doc),
		Text:  truncateRunes(text, maxExtractRunes),
	}, nil
}

func telegramMessageText(message *goquery.Selection) string {
	var b strings.Builder

	message.Find(".tgme_widget_message_text, .tgme_widget_message_caption").Each(
		func(_ int, inner *goquery.Selection) {
			inner.Find("br").Each(func(_ int, br *goquery.Selection) {
				br.ReplaceWithHtml("\n")
			})
			fragment := strings.TrimSpace(inner.Text())
			if fragment == "" {
				return
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fragment)
		},
	)

	return strings.TrimSpace(b.String())
}
