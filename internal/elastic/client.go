package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/normalize"
)

// Config carries the search-engine connection settings. Defaults match
// a local development Elasticsearch.
type Config struct {
	Host     string // default "localhost"
	Port     string // default "9200"
	Username string // default "elastic"
	Password string // default "changeme"
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == "" {
		c.Port = "9200"
	}
	if c.Username == "" {
		c.Username = "elastic"
	}
	if c.Password == "" {
		c.Password = "changeme"
	}
	return c
}

// Client is the injected search-engine handle. It is constructed once
// at process start, passed to each component, and holds no other state
// than the underlying connection pool.
type Client struct {
	es *elasticsearch.Client
}

// New builds a client from config. Construction does not contact the
// engine; use Ping for a connectivity check.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port)},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("new elasticsearch client: %w", err)
	}
	return &Client{es: es}, nil
}

// NewWithTransport builds a client against an explicit endpoint and
// transport, used by tests to point at a fake engine.
func NewWithTransport(address string, transport http.RoundTripper) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{address},
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("new elasticsearch client: %w", err)
	}
	return &Client{es: es}, nil
}

// Ping checks connectivity and logs the outcome. The caller decides
// whether an unreachable engine is fatal.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		log.Warn().Err(err).Msg("elasticsearch is not connected")
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		err := fmt.Errorf("elasticsearch ping status: %s", res.Status())
		log.Warn().Err(err).Msg("elasticsearch is not connected")
		return err
	}
	log.Info().Msg("elasticsearch is connected")
	return nil
}

// Hit is one stored document plus its engine identity and score.
type Hit struct {
	ID     string             `json:"_id"`
	Score  float64            `json:"_score"`
	Source normalize.Document `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// IndexDoc writes one document. An empty id lets the engine assign one
// (always-insert); a non-empty id replaces any existing document with
// that id (identity-based upsert).
func (c *Client) IndexDoc(ctx context.Context, index, id string, doc normalize.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	opts := []func(*esapi.IndexRequest){c.es.Index.WithContext(ctx)}
	if id != "" {
		opts = append(opts, c.es.Index.WithDocumentID(id))
	}
	res, err := c.es.Index(index, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index document status: %s", res.Status())
	}
	io.Copy(io.Discard, res.Body)
	return nil
}

// Search runs a query body against an index and returns the raw hits.
func (c *Client) Search(ctx context.Context, index string, query map[string]any, size int) ([]Hit, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search status: %s", res.Status())
	}
	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return sr.Hits.Hits, nil
}

// Count returns the number of documents in an index.
func (c *Client) Count(ctx context.Context, index string) (int, error) {
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(index),
	)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("count status: %s", res.Status())
	}
	var cr struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return cr.Count, nil
}

// GetAll fetches every stored document (bounded at 10000) plus the
// index-wide count.
func (c *Client) GetAll(ctx context.Context, index string) ([]Hit, int, error) {
	hits, err := c.Search(ctx, index, map[string]any{
		"query": map[string]any{"match_all": map[string]any{}},
	}, 10000)
	if err != nil {
		return nil, 0, err
	}
	count, err := c.Count(ctx, index)
	if err != nil {
		return nil, 0, err
	}
	log.Info().Int("count", count).Msg("total documents in index")
	return hits, count, nil
}

// DeleteByID removes one document if it exists. Returns false when the
// document was not found.
func (c *Client) DeleteByID(ctx context.Context, index, id string) (bool, error) {
	exists, err := c.es.Exists(index, id, c.es.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check document: %w", err)
	}
	exists.Body.Close()
	if exists.StatusCode == 404 {
		return false, nil
	}
	res, err := c.es.Delete(index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return false, fmt.Errorf("delete document status: %s", res.Status())
	}
	return true, nil
}
