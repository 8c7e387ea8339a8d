package normalize

import (
	"errors"
	"fmt"
)

// Document is the canonical five-field record stored and searched,
// regardless of which source produced it.
type Document struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Link        string `json:"link"`
	Content     string `json:"content"`
}

// Field names a canonical document field, used to select identity keys
// for deduplication.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldDate        Field = "date"
	FieldLink        Field = "link"
	FieldContent     Field = "content"
)

// Get returns the named field's value.
func (d Document) Get(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldDate:
		return d.Date
	case FieldLink:
		return d.Link
	case FieldContent:
		return d.Content
	}
	return ""
}

// Record is one raw source-specific object as decoded from a JSON
// export. Field names vary per source; values are read by validated
// string extraction and never trusted beyond that.
type Record map[string]any

// ErrNoData reports an empty input batch. Callers treat it as a no-op
// with zero documents indexed, not a failure.
var ErrNoData = errors.New("no data")

// Mapping produces one canonical field from a source record: either a
// read of a named source field or a literal constant. The zero value
// reads as an empty string.
type Mapping struct {
	Field   string `yaml:"field,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

func (m Mapping) apply(rec Record) string {
	if m.Field != "" {
		return readString(rec, m.Field)
	}
	return m.Literal
}

// Rule is the declarative per-source mapping table row: how each
// canonical field is produced, which canonical fields form the
// source's natural identity key, and where the static export lives.
type Rule struct {
	Title       Mapping `yaml:"title"`
	Description Mapping `yaml:"description"`
	Date        Mapping `yaml:"date"`
	Link        Mapping `yaml:"link"`
	Content     Mapping `yaml:"content"`

	// Identity lists canonical fields forming the dedupe key.
	Identity []Field `yaml:"identity"`
	// StripHTML removes markup from description and content.
	StripHTML bool `yaml:"strip_html"`
	// File is the source's JSON export filename, relative to the data dir.
	File string `yaml:"file"`
}

// Normalize maps raw source records into canonical documents using the
// given rule. Missing source fields read as empty strings; a record is
// never skipped for lacking a field. An empty input yields ErrNoData.
func Normalize(records []Record, rule Rule) ([]Document, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}
	out := make([]Document, 0, len(records))
	for _, rec := range records {
		doc := Document{
			Title:       Clean(rule.Title.apply(rec)),
			Description: Clean(rule.Description.apply(rec)),
			Date:        Clean(rule.Date.apply(rec)),
			Link:        Clean(rule.Link.apply(rec)),
			Content:     Clean(rule.Content.apply(rec)),
		}
		if rule.StripHTML {
			doc.Description = Clean(StripHTML(doc.Description))
			doc.Content = Clean(StripHTML(doc.Content))
		}
		out = append(out, doc)
	}
	return out, nil
}

// readString extracts a string value by key, tolerating absent keys and
// non-string JSON values. Numbers are formatted, everything else reads
// as empty.
func readString(rec Record, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	}
	return ""
}
