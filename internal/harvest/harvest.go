package harvest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/fetch"
)

// DefaultSelector matches the headline anchors on listing pages.
const DefaultSelector = "h3 a"

// Harvester discovers candidate article URLs from paginated category
// listing pages. A failed page fetch is logged and skipped; the global
// link cap short-circuits both the category and page loops.
type Harvester struct {
	Fetcher *fetch.Client
	// BaseURL is the site origin, e.g. "https://tuoitre.vn". Relative
	// hrefs are prefixed with it.
	BaseURL string
	// Selector overrides DefaultSelector when set.
	Selector string
	// Concurrency harvests this many categories in parallel. Zero or
	// one keeps the deterministic sequential order.
	Concurrency int
}

// Harvest walks categories × pages collecting headline links until
// maxLinks is reached. pagesPerCategory bounds the inner loop.
func (h *Harvester) Harvest(ctx context.Context, categories []int, pagesPerCategory, maxLinks int) ([]string, error) {
	if maxLinks <= 0 {
		maxLinks = 50
	}
	if pagesPerCategory <= 0 {
		pagesPerCategory = 6
	}
	sink := &linkSink{max: maxLinks, seen: make(map[string]struct{})}

	if h.Concurrency > 1 {
		sem := make(chan struct{}, h.Concurrency)
		var wg sync.WaitGroup
		for _, cat := range categories {
			if sink.full() {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(cat int) {
				defer wg.Done()
				defer func() { <-sem }()
				h.harvestCategory(ctx, cat, pagesPerCategory, sink)
			}(cat)
		}
		wg.Wait()
	} else {
		for _, cat := range categories {
			if sink.full() {
				break
			}
			h.harvestCategory(ctx, cat, pagesPerCategory, sink)
		}
	}
	return sink.urls, nil
}

func (h *Harvester) harvestCategory(ctx context.Context, cat, pages int, sink *linkSink) {
	for page := 1; page <= pages; page++ {
		if sink.full() {
			return
		}
		listing := fmt.Sprintf("%s/timeline/%d/trang-%d.htm", strings.TrimRight(h.BaseURL, "/"), cat, page)
		body, err := h.Fetcher.Get(ctx, listing)
		if err != nil {
			log.Warn().Err(err).Str("url", listing).Msg("listing fetch failed; skipping page")
			continue
		}
		if !h.collectLinks(body, sink) {
			return
		}
	}
}

// collectLinks extracts headline hrefs from one listing page. Returns
// false once the sink is full.
func (h *Harvester) collectLinks(body []byte, sink *linkSink) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Msg("listing parse failed; skipping page")
		return true
	}
	sel := h.Selector
	if sel == "" {
		sel = DefaultSelector
	}
	more := true
	doc.Find(sel).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		more = sink.add(h.absolute(href))
		return more
	})
	return more
}

func (h *Harvester) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base := strings.TrimRight(h.BaseURL, "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// linkSink is the shared, capped URL collector. The cap is a single
// counter requiring mutual exclusion across concurrent harvesters.
type linkSink struct {
	mu   sync.Mutex
	max  int
	urls []string
	seen map[string]struct{}
}

// add appends a URL and reports whether the sink can take more.
func (s *linkSink) add(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.urls) >= s.max {
		return false
	}
	if _, dup := s.seen[u]; !dup {
		s.seen[u] = struct{}{}
		s.urls = append(s.urls, u)
	}
	return len(s.urls) < s.max
}

func (s *linkSink) full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls) >= s.max
}
