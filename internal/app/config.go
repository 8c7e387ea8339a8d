package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/XN13062003/elastic-search/internal/elastic"
	"github.com/XN13062003/elastic-search/internal/query"
)

// Config holds runtime configuration for the service.
type Config struct {
	// Elastic is the search-engine connection.
	Elastic elastic.Config
	// Index is the target index name. Default "news".
	Index string
	// SchemaVersion selects the index schema revision. Default 2.
	SchemaVersion int

	// HTTPPort is the API listen port. Default "3000".
	HTTPPort string

	// DataDir holds the static per-source JSON exports. Default "data".
	DataDir string
	// RulesFile optionally overrides the built-in source mapping table.
	RulesFile string
	// StageDir holds the crawl stage files. Default ".".
	StageDir string

	// Crawl settings.
	BaseURL          string
	Categories       []int
	PagesPerCategory int
	MaxLinks         int
	UserAgent        string

	// CrawlSchedule and IndexSchedule are cron expressions for the two
	// phase triggers. Empty disables the schedule.
	CrawlSchedule string
	IndexSchedule string

	// Boosts tunes the search field weights.
	Boosts query.Boosts

	Verbose bool
}

// defaultCategories are the site's crawled timeline sections.
var defaultCategories = []int{2, 3, 6, 7, 10, 11, 12, 13, 16, 17}

// ApplyEnvToConfig populates unset fields of cfg from environment
// variables. Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Elastic.Host == "" {
		cfg.Elastic.Host = os.Getenv("ELASTIC_HOST")
	}
	if cfg.Elastic.Port == "" {
		cfg.Elastic.Port = os.Getenv("ELASTIC_PORT")
	}
	if cfg.Elastic.Username == "" {
		cfg.Elastic.Username = os.Getenv("ELASTIC_USER")
	}
	if cfg.Elastic.Password == "" {
		cfg.Elastic.Password = os.Getenv("ELASTIC_PASSWORD")
	}
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = os.Getenv("PORT")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = os.Getenv("DATA_DIR")
	}
	if cfg.RulesFile == "" {
		cfg.RulesFile = os.Getenv("RULES_FILE")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("CRAWL_BASE_URL")
	}
	if cfg.CrawlSchedule == "" {
		cfg.CrawlSchedule = os.Getenv("CRAWL_SCHEDULE")
	}
	if cfg.IndexSchedule == "" {
		cfg.IndexSchedule = os.Getenv("INDEX_SCHEDULE")
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = parseIntList(os.Getenv("CRAWL_CATEGORIES"))
	}
	if cfg.SchemaVersion == 0 {
		if n, err := strconv.Atoi(os.Getenv("SCHEMA_VERSION")); err == nil && n > 0 {
			cfg.SchemaVersion = n
		}
	}
	if cfg.MaxLinks == 0 {
		if n, err := strconv.Atoi(os.Getenv("CRAWL_MAX_LINKS")); err == nil && n > 0 {
			cfg.MaxLinks = n
		}
	}
}

// applyDefaults fills anything still unset after flags and env.
func (c *Config) applyDefaults() {
	if c.Index == "" {
		c.Index = elastic.DefaultIndex
	}
	if c.SchemaVersion == 0 {
		c.SchemaVersion = 2
	}
	if c.HTTPPort == "" {
		c.HTTPPort = "3000"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.StageDir == "" {
		c.StageDir = "."
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://tuoitre.vn"
	}
	if len(c.Categories) == 0 {
		c.Categories = defaultCategories
	}
	if c.PagesPerCategory == 0 {
		c.PagesPerCategory = 6
	}
	if c.MaxLinks == 0 {
		c.MaxLinks = 50
	}
	if c.UserAgent == "" {
		c.UserAgent = "newsearch/1.0 (+https://github.com/XN13062003/elastic-search)"
	}
}

func parseIntList(s string) []int {
	s = strings.TrimSpace(s)
	if s == "" {
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
