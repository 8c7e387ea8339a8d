package indexer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/elastic"
	"github.com/XN13062003/elastic-search/internal/normalize"
)

// Mode selects the identity discipline for index writes.
type Mode int

const (
	// ModeInsert always inserts with an engine-assigned id. Used for
	// bulk loads of static exports.
	ModeInsert Mode = iota
	// ModeDailyUpsert derives the document id from link plus the
	// date prefix, so a repeated or delayed daily run replaces the
	// same document instead of duplicating it.
	ModeDailyUpsert
)

// Options tunes one batch run.
type Options struct {
	Index string
	// BatchSize is the concurrent group width. Default 2.
	BatchSize int
	Mode      Mode
}

// Failure records one document that could not be written.
type Failure struct {
	Link string
	Err  error
}

// Result carries per-item outcomes of a batch: failures are values, not
// exceptions, and never abort sibling writes.
type Result struct {
	Indexed  int
	Failures []Failure
}

// Indexer writes deduplicated canonical documents in small concurrent
// groups. All operations in a group settle before the next group
// starts, bounding concurrent load on the engine while overlapping
// latency. There is no retry.
type Indexer struct {
	Client *elastic.Client
}

// IndexBatch writes docs in groups of opts.BatchSize.
func (ix *Indexer) IndexBatch(ctx context.Context, docs []normalize.Document, opts Options) Result {
	if opts.Index == "" {
		opts.Index = elastic.DefaultIndex
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 2
	}

	var res Result
	var mu sync.Mutex
	for start := 0; start < len(docs); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(docs) {
			end = len(docs)
		}
		var wg sync.WaitGroup
		for _, doc := range docs[start:end] {
			wg.Add(1)
			go func(doc normalize.Document) {
				defer wg.Done()
				id := ""
				if opts.Mode == ModeDailyUpsert {
					id = dailyID(doc)
				}
				err := ix.Client.IndexDoc(ctx, opts.Index, id, doc)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Warn().Err(err).Str("link", doc.Link).Msg("index operation failed")
					res.Failures = append(res.Failures, Failure{Link: doc.Link, Err: err})
					return
				}
				res.Indexed++
			}(doc)
		}
		wg.Wait()
	}
	return res
}

// dailyID hashes link plus the DD/MM/YYYY date prefix. Two crawls of
// the same article on the same day map to one stored document.
func dailyID(doc normalize.Document) string {
	sum := sha1.Sum([]byte(doc.Link + "|" + datePrefix(doc.Date)))
	return hex.EncodeToString(sum[:])
}

// datePrefix returns the leading DD/MM/YYYY portion of a free-form
// date string, or the whole string when it is shorter.
func datePrefix(date string) string {
	if len(date) < 10 {
		return date
	}
	return date[:10]
}
