package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/article"
	"github.com/XN13062003/elastic-search/internal/dedupe"
	"github.com/XN13062003/elastic-search/internal/harvest"
	"github.com/XN13062003/elastic-search/internal/indexer"
	"github.com/XN13062003/elastic-search/internal/normalize"
)

// State names the pipeline's position in a run.
type State string

const (
	StateIdle          State = "idle"
	StateHarvesting    State = "harvesting"
	StateExtracting    State = "extracting"
	StateDeduplicating State = "deduplicating"
	StateIndexing      State = "indexing"
	StateError         State = "error"
)

// ErrBusy reports an attempt to start a run while one is in flight.
// The overlapping trigger is dropped; the schedule itself stays live.
var ErrBusy = errors.New("pipeline run already in progress")

// local is the timezone the freshness filter compares against. The
// crawled site publishes Vietnam-local DD/MM/YYYY timestamps, so
// "today" is evaluated in Asia/Ho_Chi_Minh regardless of host zone.
var local = loadLocation()

func loadLocation() *time.Location {
	if loc, err := time.LoadLocation("Asia/Ho_Chi_Minh"); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

// Pipeline orchestrates harvest, extraction, deduplication and
// indexing. The crawl and index phases stage their hand-off on disk so
// they can run as one combined job or as two separate schedule points.
type Pipeline struct {
	Harvester *harvest.Harvester
	Extractor *article.Extractor
	Indexer   *indexer.Indexer
	Stage     Stage

	Index            string
	Categories       []int
	PagesPerCategory int
	MaxLinks         int
	// Identity selects the dedupe key for crawled documents.
	Identity []normalize.Field
	// Now is injectable for freshness-filter tests. Nil means time.Now.
	Now func() time.Time

	mu    sync.Mutex
	state State
}

// State returns the current stage of the pipeline.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == "" {
		return StateIdle
	}
	return p.state
}

// begin claims the pipeline for a run. Only one run at a time.
func (p *Pipeline) begin(initial State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != "" && p.state != StateIdle {
		return ErrBusy
	}
	p.state = initial
	return nil
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	log.Debug().Str("state", string(s)).Msg("pipeline state")
}

// fail records a non-fatal run failure: the run is abandoned, state
// returns to Idle, and the next scheduled run proceeds independently.
func (p *Pipeline) fail(err error, stage string) error {
	p.setState(StateError)
	log.Error().Err(err).Str("stage", stage).Msg("pipeline run abandoned")
	p.setState(StateIdle)
	return fmt.Errorf("%s: %w", stage, err)
}

// RunCrawl is the crawl-only phase: harvest links, extract articles,
// stage both lists on disk.
func (p *Pipeline) RunCrawl(ctx context.Context) error {
	if err := p.begin(StateHarvesting); err != nil {
		return err
	}
	log.Info().Ints("categories", p.Categories).Msg("crawl phase started")

	urls, err := p.Harvester.Harvest(ctx, p.Categories, p.PagesPerCategory, p.MaxLinks)
	if err != nil {
		return p.fail(err, "harvest")
	}
	if err := p.Stage.WriteLinks(urls); err != nil {
		return p.fail(err, "stage links")
	}

	p.setState(StateExtracting)
	docs := p.Extractor.Extract(ctx, urls)
	if err := p.Stage.WriteDocs(docs); err != nil {
		return p.fail(err, "stage documents")
	}

	p.setState(StateIdle)
	log.Info().Int("links", len(urls)).Int("documents", len(docs)).Msg("crawl phase finished")
	return nil
}

// RunIndex is the index-only phase: read the staged documents, dedupe,
// keep only today's documents, index them, then drop the stage files.
func (p *Pipeline) RunIndex(ctx context.Context) error {
	if err := p.begin(StateDeduplicating); err != nil {
		return err
	}

	staged, err := p.Stage.ReadDocs()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No staged data is a no-op, not a failure.
			log.Info().Msg("no staged documents; nothing to index")
			p.setState(StateIdle)
			return nil
		}
		return p.fail(err, "read stage")
	}
	if len(staged) == 0 {
		log.Info().Msg("no staged documents; nothing to index")
		p.setState(StateIdle)
		return nil
	}

	docs := dedupe.Dedupe(staged, p.Identity)
	fresh := p.filterToday(docs)
	log.Info().
		Int("staged", len(staged)).
		Int("deduped", len(docs)).
		Int("fresh", len(fresh)).
		Msg("index phase input")

	p.setState(StateIndexing)
	res := p.Indexer.IndexBatch(ctx, fresh, indexer.Options{
		Index: p.Index,
		Mode:  indexer.ModeDailyUpsert,
	})
	log.Info().
		Int("indexed", res.Indexed).
		Int("failed", len(res.Failures)).
		Msg("index phase finished")

	p.Stage.Clear()
	p.setState(StateIdle)
	return nil
}

// Run executes the combined crawl-then-index job.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.RunCrawl(ctx); err != nil {
		return err
	}
	return p.RunIndex(ctx)
}

// filterToday keeps documents whose date prefix matches today in
// DD/MM/YYYY form, preventing stale staged records from being
// re-indexed when a run is delayed or repeated.
func (p *Pipeline) filterToday(docs []normalize.Document) []normalize.Document {
	today := p.today()
	out := make([]normalize.Document, 0, len(docs))
	for _, d := range docs {
		if len(d.Date) >= len(today) && d.Date[:len(today)] == today {
			out = append(out, d)
		}
	}
	return out
}

func (p *Pipeline) today() string {
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	return now.In(local).Format("02/01/2006")
}
