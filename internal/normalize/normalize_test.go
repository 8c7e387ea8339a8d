package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalize_MapsFieldsAndLiterals(t *testing.T) {
	rule := Rule{
		Title:       Mapping{Field: "song"},
		Description: Mapping{Field: "artists"},
		Date:        Mapping{Literal: "nhom2"},
		Link:        Mapping{Literal: "nhom2"},
		Content:     Mapping{Field: "lyrics"},
	}
	docs, err := Normalize([]Record{
		{"song": "Em của ngày hôm qua", "artists": "Sơn Tùng M-TP", "lyrics": "..."},
	}, rule)
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if d.Title != "Em của ngày hôm qua" {
		t.Fatalf("unexpected title: %q", d.Title)
	}
	if d.Description != "Sơn Tùng M-TP" {
		t.Fatalf("unexpected description: %q", d.Description)
	}
	if d.Date != "nhom2" || d.Link != "nhom2" {
		t.Fatalf("literal mappings not applied: date=%q link=%q", d.Date, d.Link)
	}
}

func TestNormalize_MissingFieldReadsEmpty(t *testing.T) {
	rule := Rule{
		Title:   Mapping{Field: "title"},
		Content: Mapping{Field: "body"},
	}
	docs, err := Normalize([]Record{{"title": "Only a title"}}, rule)
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if docs[0].Title != "Only a title" {
		t.Fatalf("unexpected title: %q", docs[0].Title)
	}
	if docs[0].Content != "" {
		t.Fatalf("expected empty content for missing field, got %q", docs[0].Content)
	}
}

func TestNormalize_EmptyInputReportsNoData(t *testing.T) {
	if _, err := Normalize(nil, Rule{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if _, err := Normalize([]Record{}, Rule{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for empty slice, got %v", err)
	}
}

func TestNormalize_ToleratesNonStringValues(t *testing.T) {
	rule := Rule{
		Title: Mapping{Field: "title"},
		Date:  Mapping{Field: "year"},
		Link:  Mapping{Field: "tags"},
	}
	docs, err := Normalize([]Record{
		{"title": "Numeric year", "year": float64(2024), "tags": []any{"a", "b"}},
	}, rule)
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	if docs[0].Date != "2024" {
		t.Fatalf("expected number formatted as string, got %q", docs[0].Date)
	}
	if docs[0].Link != "" {
		t.Fatalf("expected unsupported value to read empty, got %q", docs[0].Link)
	}
}

func TestNormalize_StripsHTMLWhenConfigured(t *testing.T) {
	rule := Rule{
		Content:   Mapping{Field: "content"},
		StripHTML: true,
	}
	docs, err := Normalize([]Record{
		{"content": "<p>First</p><script>alert(1)</script><p>Second</p>"},
	}, rule)
	if err != nil {
		t.Fatalf("normalize error: %v", err)
	}
	got := docs[0].Content
	if strings.Contains(got, "<") || strings.Contains(got, "alert") {
		t.Fatalf("markup or script survived: %q", got)
	}
	if !strings.Contains(got, "First") || !strings.Contains(got, "Second") {
		t.Fatalf("text content lost: %q", got)
	}
}

func TestClean_RemovesQuotesAndNewlines(t *testing.T) {
	got := Clean("He said \"hello\"\nand left\r\n")
	if strings.ContainsAny(got, "\"\n\r") {
		t.Fatalf("quote or newline survived: %q", got)
	}
	if got != "He said 'hello' and left" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestSourceTable_EveryRuleHasIdentityAndFile(t *testing.T) {
	for id, rule := range Sources {
		if len(rule.Identity) == 0 {
			t.Fatalf("source %s has no identity fields", id)
		}
		if rule.File == "" {
			t.Fatalf("source %s has no export file", id)
		}
	}
}

func TestLoadRules_MergesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `sources:
  clb:
    title: {field: headline}
    identity: [title]
    file: other.json
  fresh:
    title: {field: t}
    date: {literal: fresh}
    identity: [title]
    file: dataFresh.json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if rules["clb"].Title.Field != "headline" {
		t.Fatalf("override not applied: %+v", rules["clb"])
	}
	if _, ok := rules["fresh"]; !ok {
		t.Fatalf("new source not merged")
	}
	if _, ok := rules["animal"]; !ok {
		t.Fatalf("built-in sources lost in merge")
	}
	if Sources["clb"].Title.Field != "title" {
		t.Fatalf("built-in table mutated by merge")
	}
}
