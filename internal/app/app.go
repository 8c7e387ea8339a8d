package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/article"
	"github.com/XN13062003/elastic-search/internal/elastic"
	"github.com/XN13062003/elastic-search/internal/fetch"
	"github.com/XN13062003/elastic-search/internal/harvest"
	"github.com/XN13062003/elastic-search/internal/indexer"
	"github.com/XN13062003/elastic-search/internal/normalize"
	"github.com/XN13062003/elastic-search/internal/pipeline"
	"github.com/XN13062003/elastic-search/internal/query"
)

// App wires the pipeline components around one injected search-engine
// client: created at process start, held for the process lifetime,
// closed on shutdown.
type App struct {
	cfg      Config
	es       *elastic.Client
	rules    map[string]normalize.Rule
	schema   elastic.Schema
	indexer  *indexer.Indexer
	pipeline *pipeline.Pipeline
	search   *query.Service
	cron     *cron.Cron
}

// New builds the application from config. An unreachable engine is
// logged, not fatal: the schedule and API stay up and individual runs
// surface their own failures.
func New(ctx context.Context, cfg Config) (*App, error) {
	cfg.applyDefaults()

	es, err := elastic.New(cfg.Elastic)
	if err != nil {
		return nil, fmt.Errorf("init elasticsearch: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	_ = es.Ping(pingCtx)
	cancel()

	rules, err := normalize.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load mapping rules: %w", err)
	}

	schema, err := elastic.SchemaByVersion(cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	fetcher := &fetch.Client{
		HTTPClient:        newCrawlHTTPClient(),
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: 15 * time.Second,
	}
	ix := &indexer.Indexer{Client: es}

	a := &App{
		cfg:     cfg,
		es:      es,
		rules:   rules,
		schema:  schema,
		indexer: ix,
		pipeline: &pipeline.Pipeline{
			Harvester:        &harvest.Harvester{Fetcher: fetcher, BaseURL: cfg.BaseURL},
			Extractor:        &article.Extractor{Fetcher: fetcher},
			Indexer:          ix,
			Stage:            pipeline.Stage{Dir: cfg.StageDir},
			Index:            cfg.Index,
			Categories:       cfg.Categories,
			PagesPerCategory: cfg.PagesPerCategory,
			MaxLinks:         cfg.MaxLinks,
			Identity: []normalize.Field{
				normalize.FieldTitle,
				normalize.FieldDescription,
				normalize.FieldDate,
			},
		},
		search: &query.Service{Client: es, Index: cfg.Index, Boosts: cfg.Boosts},
	}
	return a, nil
}

// Run starts the schedule and serves the HTTP API until the listener
// stops.
func (a *App) Run(ctx context.Context) error {
	a.startSchedule()
	router := a.Router()
	addr := ":" + a.cfg.HTTPPort
	log.Info().Str("addr", addr).Msg("server is running")
	return router.Run(addr)
}

// RunCrawlOnce executes one combined crawl-then-index job and returns.
func (a *App) RunCrawlOnce(ctx context.Context) error {
	return a.pipeline.Run(ctx)
}

// RunIndexOnce executes one index-only phase over the staged documents
// and returns.
func (a *App) RunIndexOnce(ctx context.Context) error {
	return a.pipeline.RunIndex(ctx)
}

// Close stops the schedule. In-flight pipeline runs finish on their own.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
}

// startSchedule registers the two independent triggers: the crawl-only
// phase and the index-only phase run a few minutes apart.
func (a *App) startSchedule() {
	if a.cfg.CrawlSchedule == "" && a.cfg.IndexSchedule == "" {
		log.Info().Msg("no schedules configured; crawl runs only on demand")
		return
	}
	a.cron = cron.New()
	if s := a.cfg.CrawlSchedule; s != "" {
		if _, err := a.cron.AddFunc(s, func() {
			if err := a.pipeline.RunCrawl(context.Background()); err != nil {
				log.Error().Err(err).Msg("scheduled crawl failed")
			}
		}); err != nil {
			log.Error().Err(err).Str("spec", s).Msg("invalid crawl schedule")
		}
	}
	if s := a.cfg.IndexSchedule; s != "" {
		if _, err := a.cron.AddFunc(s, func() {
			if err := a.pipeline.RunIndex(context.Background()); err != nil {
				log.Error().Err(err).Msg("scheduled index failed")
			}
		}); err != nil {
			log.Error().Err(err).Str("spec", s).Msg("invalid index schedule")
		}
	}
	a.cron.Start()
	log.Info().
		Str("crawl", a.cfg.CrawlSchedule).
		Str("index", a.cfg.IndexSchedule).
		Msg("schedules started")
}

// newCrawlHTTPClient tunes the shared transport for many short page
// fetches against a single origin.
func newCrawlHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		ForceAttemptHTTP2:   true,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: 20 * time.Second}
}
