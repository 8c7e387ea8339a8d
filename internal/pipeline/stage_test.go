package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/XN13062003/elastic-search/internal/normalize"
)

func TestStage_LinkRoundTrip(t *testing.T) {
	s := Stage{Dir: t.TempDir()}
	want := []string{"https://a.example/1.htm", "https://a.example/2.htm"}
	if err := s.WriteLinks(want); err != nil {
		t.Fatalf("write links: %v", err)
	}
	got, err := s.ReadLinks()
	if err != nil {
		t.Fatalf("read links: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("link round trip mismatch: %v", got)
	}
}

func TestStage_DocRoundTrip(t *testing.T) {
	s := Stage{Dir: t.TempDir()}
	want := []normalize.Document{
		{Title: "Một", Description: "d", Date: "01/01/2030", Link: "l1", Content: "c1"},
		{Title: "Hai", Date: "02/01/2030", Link: "l2"},
	}
	if err := s.WriteDocs(want); err != nil {
		t.Fatalf("write docs: %v", err)
	}
	got, err := s.ReadDocs()
	if err != nil {
		t.Fatalf("read docs: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("doc round trip mismatch: %+v", got)
	}
}

func TestStage_ReadTolertesTrailingCommasAndJunk(t *testing.T) {
	dir := t.TempDir()
	raw := `{"title":"a","date":"01/01/2030"},
{"title":"b","date":"01/01/2030"},

not json at all
{"title":"c","date":"01/01/2030"}
`
	if err := os.WriteFile(filepath.Join(dir, "data.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write stage file: %v", err)
	}
	s := Stage{Dir: dir}
	got, err := s.ReadDocs()
	if err != nil {
		t.Fatalf("read docs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 parsed documents, got %d", len(got))
	}
	if got[0].Title != "a" || got[2].Title != "c" {
		t.Fatalf("unexpected parse result: %+v", got)
	}
}

func TestStage_ClearRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	s := Stage{Dir: dir}
	if err := s.WriteLinks([]string{"x"}); err != nil {
		t.Fatalf("write links: %v", err)
	}
	if err := s.WriteDocs([]normalize.Document{{Title: "t"}}); err != nil {
		t.Fatalf("write docs: %v", err)
	}
	s.Clear()
	for _, name := range []string{"link.txt", "data.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("stage file %s not removed", name)
		}
	}
	// Clearing an already-clean stage is harmless.
	s.Clear()
}
