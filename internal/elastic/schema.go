package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultIndex is the index holding canonical news documents.
const DefaultIndex = "news"

// Similarity names select the per-field relevance scheme. Fields can be
// reassigned between the scripted lnc.ltc scheme and tuned BM25 without
// touching any other field's mapping.
type Similarity string

const (
	// SimilarityDefault leaves the engine's stock ranking in place.
	SimilarityDefault Similarity = ""
	// SimilarityLncLtc is the scripted lnc.ltc scheme: log-dampened tf
	// with 1/sqrt length norms on both document and query sides.
	SimilarityLncLtc Similarity = "lnc_ltc_similarity"
	// SimilarityBM25 is BM25 with tunable k1/b.
	SimilarityBM25 Similarity = "news_bm25"
)

// lncLtcScript scores a term as docTf*docNorm*queryTf*idf*queryNorm,
// the lnc.ltc weighting from the SMART notation.
const lncLtcScript = "double docTf = (doc.freq > 0) ? 1 + Math.log(doc.freq) : 0; " +
	"double docNorm = (doc.length > 0) ? 1 / Math.sqrt(doc.length) : 1; " +
	"double queryTf = (term.totalTermFreq > 0) ? 1 + Math.log(term.totalTermFreq) : 0; " +
	"double idf = (term.docFreq > 0) ? Math.log((field.docCount + 1.0) / term.docFreq) : 0; " +
	"double queryNorm = 1 / Math.sqrt(field.sumDocFreq > 0 ? field.sumDocFreq : 1); " +
	"return docTf*docNorm*queryTf*idf*queryNorm"

// foldGroups maps each Vietnamese accented cluster to its unaccented
// base letter: the six vowel groups plus đ.
var foldGroups = []struct {
	Name        string
	Pattern     string
	Replacement string
}{
	{"replace_a", "[àáạảãâầấậẩẫăằắặẳẵ]", "a"},
	{"replace_e", "[èéẹẻẽêềếệểễ]", "e"},
	{"replace_i", "[ìíịỉĩ]", "i"},
	{"replace_o", "[òóọỏõôồốộổỗơờớợởỡ]", "o"},
	{"replace_u", "[ùúụủũưừứựửữ]", "u"},
	{"replace_y", "[ỳýỵỷỹ]", "y"},
	{"replace_d", "[đ]", "d"},
}

// TextField configures one analyzed field of the mapping.
type TextField struct {
	Name       string
	Similarity Similarity
	// Ngrams adds bigram/trigram sub-fields alongside the origin and
	// folded forms.
	Ngrams bool
}

// Schema is one versioned index configuration. Schema revisions with
// different field sets and similarity assignments coexist; the version
// in use is plain configuration, never inferred from the live index.
type Schema struct {
	Version int
	Fields  []TextField
	// BM25 tuning, used by any field assigned SimilarityBM25.
	BM25K1 float64
	BM25B  float64
}

// SchemaV1 is the minimal revision: description carries the scripted
// similarity, content rides the engine default.
func SchemaV1() Schema {
	return Schema{
		Version: 1,
		Fields: []TextField{
			{Name: "description", Similarity: SimilarityLncLtc},
			{Name: "content"},
		},
		BM25K1: 1.2,
		BM25B:  0.75,
	}
}

// SchemaV2 adds the title field with n-gram sub-fields and assigns the
// scripted similarity to title and description.
func SchemaV2() Schema {
	return Schema{
		Version: 2,
		Fields: []TextField{
			{Name: "title", Similarity: SimilarityLncLtc, Ngrams: true},
			{Name: "description", Similarity: SimilarityLncLtc},
			{Name: "content", Ngrams: true},
		},
		BM25K1: 1.2,
		BM25B:  0.75,
	}
}

// SchemaByVersion resolves a configured version number.
func SchemaByVersion(v int) (Schema, error) {
	switch v {
	case 0, 1:
		return SchemaV1(), nil
	case 2:
		return SchemaV2(), nil
	}
	return Schema{}, fmt.Errorf("unknown schema version: %d", v)
}

// Body renders the full index settings and mappings for this schema.
func (s Schema) Body() map[string]any {
	charFilters := map[string]any{}
	foldNames := make([]string, 0, len(foldGroups))
	for _, g := range foldGroups {
		charFilters[g.Name] = map[string]any{
			"type":        "pattern_replace",
			"pattern":     g.Pattern,
			"replacement": g.Replacement,
		}
		foldNames = append(foldNames, g.Name)
	}

	filters := map[string]any{
		"shingle_filter": map[string]any{
			"type":             "shingle",
			"min_shingle_size": 2,
			"max_shingle_size": 2,
			"output_unigrams":  false,
		},
	}
	analyzers := map[string]any{
		"origin_viet_analyzer": map[string]any{
			"type":      "custom",
			"tokenizer": "whitespace",
			"filter":    []string{"lowercase", "shingle_filter"},
		},
		"non_viet_analyzer": map[string]any{
			"type":        "custom",
			"char_filter": foldNames,
			"tokenizer":   "whitespace",
			"filter":      []string{"lowercase", "shingle_filter"},
		},
	}
	tokenizers := map[string]any{}
	if s.hasNgrams() {
		tokenizers["bigram_tokenizer"] = map[string]any{
			"type":        "ngram",
			"min_gram":    2,
			"max_gram":    2,
			"token_chars": []string{"letter", "digit"},
		}
		tokenizers["trigram_tokenizer"] = map[string]any{
			"type":        "ngram",
			"min_gram":    3,
			"max_gram":    3,
			"token_chars": []string{"letter", "digit"},
		}
		analyzers["bigram_analyzer"] = map[string]any{
			"type":      "custom",
			"tokenizer": "bigram_tokenizer",
			"filter":    []string{"lowercase"},
		}
		analyzers["trigram_analyzer"] = map[string]any{
			"type":      "custom",
			"tokenizer": "trigram_tokenizer",
			"filter":    []string{"lowercase"},
		}
	}

	analysis := map[string]any{
		"char_filter": charFilters,
		"filter":      filters,
		"analyzer":    analyzers,
	}
	if len(tokenizers) > 0 {
		analysis["tokenizer"] = tokenizers
	}

	similarity := map[string]any{
		string(SimilarityLncLtc): map[string]any{
			"type":   "scripted",
			"script": map[string]any{"source": lncLtcScript},
		},
		string(SimilarityBM25): map[string]any{
			"type": "BM25",
			"k1":   s.BM25K1,
			"b":    s.BM25B,
		},
	}

	properties := map[string]any{
		"link": map[string]any{"type": "keyword", "index": false},
		"date": map[string]any{"type": "keyword"},
	}
	for _, f := range s.Fields {
		properties[f.Name] = f.property()
	}

	return map[string]any{
		"settings": map[string]any{
			"analysis":   analysis,
			"similarity": similarity,
		},
		"mappings": map[string]any{
			"properties": properties,
		},
	}
}

func (s Schema) hasNgrams() bool {
	for _, f := range s.Fields {
		if f.Ngrams {
			return true
		}
	}
	return false
}

func (f TextField) property() map[string]any {
	sub := map[string]any{
		"origin_viet": map[string]any{
			"type":        "text",
			"analyzer":    "origin_viet_analyzer",
			"term_vector": "with_positions_offsets",
		},
		"non_viet": map[string]any{
			"type":        "text",
			"analyzer":    "non_viet_analyzer",
			"term_vector": "with_positions_offsets",
		},
	}
	if f.Ngrams {
		sub["bigram"] = map[string]any{"type": "text", "analyzer": "bigram_analyzer"}
		sub["trigram"] = map[string]any{"type": "text", "analyzer": "trigram_analyzer"}
	}
	prop := map[string]any{
		"type":   "text",
		"fields": sub,
	}
	if f.Similarity != SimilarityDefault {
		prop["similarity"] = string(f.Similarity)
	}
	return prop
}

// EnsureIndex creates the index with the schema unless it already
// exists. Creation is idempotent and never overwrites a live mapping.
// The returned bool reports whether a create happened; a create failure
// is an error distinct from the already-exists outcome.
func (c *Client) EnsureIndex(ctx context.Context, index string, schema Schema) (bool, error) {
	exists, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		log.Info().Str("index", index).Msg("index already exists")
		return false, nil
	}

	body, err := json.Marshal(schema.Body())
	if err != nil {
		return false, fmt.Errorf("marshal index body: %w", err)
	}
	res, err := c.es.Indices.Create(index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return false, fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("create index status: %s", res.Status())
	}
	log.Info().Str("index", index).Int("schema", schema.Version).Msg("index created")
	return true, nil
}

// DropIndex deletes the index. Returns false when it did not exist.
func (c *Client) DropIndex(ctx context.Context, index string) (bool, error) {
	exists, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	exists.Body.Close()
	if exists.StatusCode == 404 {
		log.Info().Str("index", index).Msg("index does not exist")
		return false, nil
	}
	res, err := c.es.Indices.Delete([]string{index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("delete index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("delete index status: %s", res.Status())
	}
	log.Info().Str("index", index).Msg("index deleted")
	return true, nil
}
