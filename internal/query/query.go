package query

import (
	"context"
	"fmt"

	"github.com/XN13062003/elastic-search/internal/elastic"
	"github.com/XN13062003/elastic-search/internal/normalize"
)

// Boosts weights the searched fields. Zero values fall back to the
// 3:2:1 description/content/title default.
type Boosts struct {
	Description float64
	Content     float64
	Title       float64
}

func (b Boosts) withDefaults() Boosts {
	if b.Description <= 0 {
		b.Description = 3
	}
	if b.Content <= 0 {
		b.Content = 2
	}
	if b.Title <= 0 {
		b.Title = 1
	}
	return b
}

// ScoredDocument is one hit projected to the canonical fields plus the
// relevance score.
type ScoredDocument struct {
	Score       float64 `json:"_score"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Link        string  `json:"link"`
	Content     string  `json:"content"`
}

// Service executes weighted multi-field queries against the index. It
// only reads; index writes belong to the indexer.
type Service struct {
	Client *elastic.Client
	Index  string
	Boosts Boosts
}

// Search runs a multi_match over description, content and title and
// returns at most size hits by descending score. Empty query text is
// passed through to the engine's default scoring.
func (s *Service) Search(ctx context.Context, text string, size int) ([]ScoredDocument, error) {
	if size <= 0 {
		size = 10
	}
	index := s.Index
	if index == "" {
		index = elastic.DefaultIndex
	}
	b := s.Boosts.withDefaults()
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query": text,
				"fields": []string{
					fmt.Sprintf("description^%g", b.Description),
					fmt.Sprintf("content^%g", b.Content),
					fmt.Sprintf("title^%g", b.Title),
				},
			},
		},
	}
	hits, err := s.Client.Search(ctx, index, body, size)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredDocument, 0, len(hits))
	for _, h := range hits {
		out = append(out, scored(h))
	}
	return out, nil
}

func scored(h elastic.Hit) ScoredDocument {
	return ScoredDocument{
		Score:       h.Score,
		Title:       h.Source.Title,
		Description: h.Source.Description,
		Date:        h.Source.Date,
		Link:        h.Source.Link,
		Content:     h.Source.Content,
	}
}

// FromDocument builds a scored projection from a canonical document,
// used by the get-all surface where the engine reports no score.
func FromDocument(d normalize.Document, score float64) ScoredDocument {
	return ScoredDocument{
		Score:       score,
		Title:       d.Title,
		Description: d.Description,
		Date:        d.Date,
		Link:        d.Link,
		Content:     d.Content,
	}
}
