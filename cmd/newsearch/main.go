package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional; real env always wins over it.
	_ = godotenv.Load()

	var (
		cfg        app.Config
		categories string
		crawlOnce  bool
		indexOnce  bool
		verbose    bool
	)

	flag.StringVar(&cfg.Elastic.Host, "es.host", "", "Elasticsearch host (default localhost, env ELASTIC_HOST)")
	flag.StringVar(&cfg.Elastic.Port, "es.port", "", "Elasticsearch port (default 9200, env ELASTIC_PORT)")
	flag.StringVar(&cfg.Elastic.Username, "es.user", "", "Elasticsearch username (default elastic, env ELASTIC_USER)")
	flag.StringVar(&cfg.Elastic.Password, "es.pass", "", "Elasticsearch password (default changeme, env ELASTIC_PASSWORD)")
	flag.StringVar(&cfg.Index, "index", "", "Index name (default news)")
	flag.IntVar(&cfg.SchemaVersion, "schema", 0, "Index schema version (default 2, env SCHEMA_VERSION)")
	flag.StringVar(&cfg.HTTPPort, "port", "", "HTTP listen port (default 3000, env PORT)")
	flag.StringVar(&cfg.DataDir, "data.dir", "", "Directory of static source exports (default data, env DATA_DIR)")
	flag.StringVar(&cfg.RulesFile, "rules", "", "Optional YAML mapping-rule override file (env RULES_FILE)")
	flag.StringVar(&cfg.StageDir, "stage.dir", "", "Directory for crawl stage files (default .)")
	flag.StringVar(&cfg.BaseURL, "crawl.base", "", "Crawl site origin (default https://tuoitre.vn, env CRAWL_BASE_URL)")
	flag.StringVar(&categories, "crawl.categories", "", "Comma-separated category ids (env CRAWL_CATEGORIES)")
	flag.IntVar(&cfg.PagesPerCategory, "crawl.pages", 0, "Listing pages per category (default 6)")
	flag.IntVar(&cfg.MaxLinks, "crawl.maxLinks", 0, "Global harvested link cap (default 50, env CRAWL_MAX_LINKS)")
	flag.StringVar(&cfg.CrawlSchedule, "schedule.crawl", "", "Cron expression for the crawl phase (env CRAWL_SCHEDULE)")
	flag.StringVar(&cfg.IndexSchedule, "schedule.index", "", "Cron expression for the index phase (env INDEX_SCHEDULE)")
	flag.Float64Var(&cfg.Boosts.Description, "boost.description", 0, "Search boost for description (default 3)")
	flag.Float64Var(&cfg.Boosts.Content, "boost.content", 0, "Search boost for content (default 2)")
	flag.Float64Var(&cfg.Boosts.Title, "boost.title", 0, "Search boost for title (default 1)")
	flag.BoolVar(&crawlOnce, "crawl.once", false, "Run one combined crawl-then-index job and exit")
	flag.BoolVar(&indexOnce, "index.once", false, "Run one index-only phase over staged documents and exit")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	cfg.Verbose = verbose
	cfg.Categories = parseCategories(categories)
	app.ApplyEnvToConfig(&cfg)

	if err := run(cfg, crawlOnce, indexOnce); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func parseCategories(s string) []int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func run(cfg app.Config, crawlOnce, indexOnce bool) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	switch {
	case crawlOnce:
		return a.RunCrawlOnce(ctx)
	case indexOnce:
		return a.RunIndexOnce(ctx)
	}
	return a.Run(ctx)
}
