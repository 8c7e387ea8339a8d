package elastic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/XN13062003/elastic-search/internal/normalize"
)

// newFakeEngine wraps a handler with the product header the client
// checks for.
func newFakeEngine(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := NewWithTransport(srv.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	var createdBody map[string]any
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&createdBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	created, err := c.EnsureIndex(context.Background(), "news", SchemaV1())
	if err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	if !created {
		t.Fatalf("expected a create")
	}
	if _, ok := createdBody["settings"]; !ok {
		t.Fatalf("create request missing settings: %v", createdBody)
	}
}

func TestEnsureIndex_IdempotentWhenPresent(t *testing.T) {
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Fatalf("must not overwrite an existing index")
		}
		w.WriteHeader(http.StatusOK)
	})
	created, err := c.EnsureIndex(context.Background(), "news", SchemaV1())
	if err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	if created {
		t.Fatalf("expected already-exists outcome")
	}
}

func TestEnsureIndex_CreateFailureIsDistinctError(t *testing.T) {
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"mapper_parsing_exception"}`, http.StatusBadRequest)
	})
	created, err := c.EnsureIndex(context.Background(), "news", SchemaV1())
	if err == nil {
		t.Fatalf("expected create failure to surface")
	}
	if created {
		t.Fatalf("failed create must not report created")
	}
}

func TestDropIndex_ReportsNotFound(t *testing.T) {
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			t.Fatalf("must not delete a missing index")
		}
		w.WriteHeader(http.StatusNotFound)
	})
	deleted, err := c.DropIndex(context.Background(), "news")
	if err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if deleted {
		t.Fatalf("expected not-found outcome")
	}
}

func TestIndexDoc_EngineAssignedVersusExplicitID(t *testing.T) {
	var paths []string
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	doc := normalize.Document{Title: "t", Link: "l"}
	if err := c.IndexDoc(context.Background(), "news", "", doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.IndexDoc(context.Background(), "news", "abc123", doc); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 writes, got %v", paths)
	}
	if !strings.HasPrefix(paths[0], "POST /news/_doc") {
		t.Fatalf("engine-assigned insert should POST: %v", paths[0])
	}
	if paths[1] != "PUT /news/_doc/abc123" {
		t.Fatalf("explicit id should PUT to the id: %v", paths[1])
	}
}

func TestGetAll_ReturnsHitsAndCount(t *testing.T) {
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "_count") {
			_, _ = w.Write([]byte(`{"count":2}`))
			return
		}
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"1","_score":1.0,"_source":{"title":"a"}},
			{"_id":"2","_score":0.5,"_source":{"title":"b"}}
		]}}`))
	})
	hits, count, err := c.GetAll(context.Background(), "news")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if count != 2 || len(hits) != 2 {
		t.Fatalf("unexpected result: count=%d hits=%d", count, len(hits))
	}
	if hits[0].Source.Title != "a" {
		t.Fatalf("source not projected: %+v", hits[0])
	}
}

func TestDeleteByID_ChecksExistenceFirst(t *testing.T) {
	c, _ := newFakeEngine(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			t.Fatalf("must not delete a missing document")
		}
		w.WriteHeader(http.StatusNotFound)
	})
	deleted, err := c.DeleteByID(context.Background(), "news", "nope")
	if err != nil {
		t.Fatalf("delete by id: %v", err)
	}
	if deleted {
		t.Fatalf("expected not-found outcome")
	}
}
