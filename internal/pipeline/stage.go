package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/normalize"
)

// Stage is the transient on-disk buffer between the crawl and index
// phases. The two phases may run as separate scheduled invocations, so
// extraction output is durably staged rather than held in memory.
type Stage struct {
	// Dir holds the stage files. Default ".".
	Dir string
}

const (
	linkFile = "link.txt"
	dataFile = "data.json"
)

func (s Stage) path(name string) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}

// WriteLinks stages the discovered-link list, one absolute URL per line.
func (s Stage) WriteLinks(urls []string) error {
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.path(linkFile), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write link stage: %w", err)
	}
	return nil
}

// ReadLinks loads the staged link list, skipping blank lines.
func (s Stage) ReadLinks() ([]string, error) {
	f, err := os.Open(s.path(linkFile))
	if err != nil {
		return nil, fmt.Errorf("open link stage: %w", err)
	}
	defer f.Close()
	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if u := strings.TrimSpace(sc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read link stage: %w", err)
	}
	return urls, nil
}

// WriteDocs stages extracted documents as line-delimited JSON, one
// object per line.
func (s Stage) WriteDocs(docs []normalize.Document) error {
	f, err := os.Create(s.path(dataFile))
	if err != nil {
		return fmt.Errorf("create data stage: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode staged document: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush data stage: %w", err)
	}
	return nil
}

// ReadDocs loads the staged document list. An earlier writer appended a
// trailing comma per line; both forms are accepted. A malformed line is
// logged and skipped rather than failing the whole stage.
func (s Stage) ReadDocs() ([]normalize.Document, error) {
	f, err := os.Open(s.path(dataFile))
	if err != nil {
		return nil, fmt.Errorf("open data stage: %w", err)
	}
	defer f.Close()
	var docs []normalize.Document
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimSuffix(line, ",")
		if line == "" {
			continue
		}
		var d normalize.Document
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			log.Warn().Err(err).Msg("malformed staged document; skipping line")
			continue
		}
		docs = append(docs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read data stage: %w", err)
	}
	return docs, nil
}

// Clear removes the staged artifacts after a successful index phase.
// The stage is a transient buffer, not a permanent log.
func (s Stage) Clear() {
	for _, name := range []string{linkFile, dataFile} {
		if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", name).Msg("could not remove stage file")
		}
	}
}
