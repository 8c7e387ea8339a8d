package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/XN13062003/elastic-search/internal/normalize"
	"github.com/XN13062003/elastic-search/internal/pipeline"
	"github.com/XN13062003/elastic-search/internal/query"
)

// response is the uniform API envelope.
type response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

func reply(c *gin.Context, code int, message string, data any) {
	c.JSON(code, response{StatusCode: code, Message: message, Data: data})
}

func serverError(c *gin.Context) {
	reply(c, http.StatusInternalServerError, "Internal Server Error", nil)
}

// Router builds the HTTP surface. One add route is registered per
// mapping-table row, so a new static source needs a table row only.
func (a *App) Router() *gin.Engine {
	if !a.cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/elastic")
	api.POST("/search", a.handleSearch)
	api.POST("/create-index", a.handleCreateIndex)
	api.DELETE("/delete-elastic", a.handleDeleteIndex)
	api.GET("/get-all-elastic", a.handleGetAll)
	api.POST("/crawl", a.handleCrawl)
	for _, id := range normalize.SourceIDs(a.rules) {
		api.POST("/add-"+id, a.handleAddSource(id))
	}
	return r
}

func (a *App) handleSearch(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		reply(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	docs, err := a.search.Search(c.Request.Context(), req.Text, 10)
	if err != nil {
		log.Error().Err(err).Msg("search failed")
		serverError(c)
		return
	}
	reply(c, http.StatusOK, "Data fetched successfully", docs)
}

func (a *App) handleCreateIndex(c *gin.Context) {
	created, err := a.es.EnsureIndex(c.Request.Context(), a.cfg.Index, a.schema)
	if err != nil {
		log.Error().Err(err).Msg("create index failed")
		serverError(c)
		return
	}
	if created {
		reply(c, http.StatusOK, "Index created successfully", nil)
		return
	}
	reply(c, http.StatusOK, "Index already exists", nil)
}

func (a *App) handleDeleteIndex(c *gin.Context) {
	deleted, err := a.es.DropIndex(c.Request.Context(), a.cfg.Index)
	if err != nil {
		log.Error().Err(err).Msg("delete index failed")
		serverError(c)
		return
	}
	if deleted {
		reply(c, http.StatusOK, "Index deleted successfully", nil)
		return
	}
	reply(c, http.StatusOK, "Index does not exist", nil)
}

func (a *App) handleGetAll(c *gin.Context) {
	hits, count, err := a.es.GetAll(c.Request.Context(), a.cfg.Index)
	if err != nil {
		log.Error().Err(err).Msg("get all failed")
		serverError(c)
		return
	}
	docs := make([]query.ScoredDocument, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, query.FromDocument(h.Source, h.Score))
	}
	reply(c, http.StatusOK, "Data fetched successfully", gin.H{
		"count":     count,
		"documents": docs,
	})
}

// handleCrawl triggers a combined crawl-then-index run off-schedule.
// The run proceeds in the background; an in-flight run rejects the
// trigger instead of queueing it.
func (a *App) handleCrawl(c *gin.Context) {
	if a.pipeline.State() != pipeline.StateIdle {
		reply(c, http.StatusConflict, "Crawl already in progress", nil)
		return
	}
	go func() {
		if err := a.pipeline.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("manual crawl failed")
		}
	}()
	reply(c, http.StatusOK, "Crawl started", nil)
}

func (a *App) handleAddSource(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := a.ingestSource(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, normalize.ErrNoData) {
				reply(c, http.StatusBadRequest, "Data is empty", nil)
				return
			}
			log.Error().Err(err).Str("source", id).Msg("add source failed")
			serverError(c)
			return
		}
		reply(c, http.StatusOK, "Data added successfully", gin.H{
			"indexed": res.Indexed,
			"failed":  len(res.Failures),
		})
	}
}
