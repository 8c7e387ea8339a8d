package article

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/fetch"
	"github.com/XN13062003/elastic-search/internal/normalize"
)

// Selectors locates the article parts on a detail page. The zero value
// is replaced by DefaultSelectors.
type Selectors struct {
	Title   string
	Summary string
	Time    string
	Body    string
}

// DefaultSelectors matches the tuoitre.vn detail page layout.
var DefaultSelectors = Selectors{
	Title:   "h1.detail-title",
	Summary: "h2.detail-sapo",
	Time:    ".detail-time",
	Body:    ".detail-content",
}

// relatedBoxClass marks "related articles" paragraphs embedded in the
// body container. They are structural noise, not article content.
const relatedBoxClass = "VCObjectBoxRelatedNewsItemSapo"

// Extractor fetches article pages and extracts them into canonical
// documents. A per-URL failure is logged and skipped so one malformed
// page never aborts a crawl run.
type Extractor struct {
	Fetcher   *fetch.Client
	Selectors Selectors
}

// Extract fetches each URL and returns the successfully extracted
// documents in input order.
func (e *Extractor) Extract(ctx context.Context, urls []string) []normalize.Document {
	out := make([]normalize.Document, 0, len(urls))
	for _, u := range urls {
		doc, err := e.ExtractOne(ctx, u)
		if err != nil {
			log.Warn().Err(err).Str("url", u).Msg("article extraction failed; skipping")
			continue
		}
		out = append(out, doc)
	}
	return out
}

// ExtractOne fetches one article page and maps it to the canonical
// shape. All four text fields are quote- and newline-normalized.
func (e *Extractor) ExtractOne(ctx context.Context, url string) (normalize.Document, error) {
	body, err := e.Fetcher.Get(ctx, url)
	if err != nil {
		return normalize.Document{}, err
	}
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return normalize.Document{}, err
	}
	sel := e.Selectors
	if sel == (Selectors{}) {
		sel = DefaultSelectors
	}

	var content strings.Builder
	page.Find(sel.Body).Find("p").Each(func(_ int, p *goquery.Selection) {
		if _, placeholder := p.Attr("data-placeholder"); placeholder {
			return
		}
		if class, _ := p.Attr("class"); strings.Contains(class, relatedBoxClass) {
			return
		}
		content.WriteString(p.Text())
	})

	return normalize.Document{
		Title:       normalize.Clean(page.Find(sel.Title).Text()),
		Description: normalize.Clean(page.Find(sel.Summary).Text()),
		Date:        normalize.Clean(page.Find(sel.Time).Text()),
		Link:        strings.TrimSpace(url),
		Content:     normalize.Clean(content.String()),
	}, nil
}
