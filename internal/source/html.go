package source

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const noiseSelector = "script, style, noscript, nav, header, footer, aside, form"

//nolint:gochecknoglobals // Ordered lookup, most specific first.
var paragraphSelectors = []string{"article p", "main p", "p"}

func pageTitle(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(content) != "" {
		return strings.TrimSpace(content)
	}

	return collapseSpaces(doc.Find("title").First().Text())
}

func pageText(doc *goquery.Document) string {
	doc.Find(noiseSelector).Remove()

	for _, selector := range paragraphSelectors {
		if text := joinParagraphs(doc.Find(selector)); text != "" {
			return text
		}
	}

	for _, meta := range []string{"meta[property='og:description']", "meta[name='description']"} {
		if content, ok := doc.Find(meta).Attr("content"); ok {
			if text := collapseSpaces(content); text != "" {
				return text
			}
		}
	}

	return collapseSpaces(doc.Find("body").Text())
}

// fragmentText renders an HTML fragment, such as feed item content, as text.
func fragmentText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpaces(fragment)
	}

	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})

	return pageText(doc)
}

func joinParagraphs(sel *goquery.Selection) string {
	var b strings.Builder

	sel.Each(func(_ int, p *goquery.Selection) {
		text := collapseSpaces(p.Text())
		if text == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	})

	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
