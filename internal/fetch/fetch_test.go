package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_ReturnsBodyAndSendsUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "newsearch-test/1.0"}
	body, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if string(body) != "<html>ok</html>" {
		t.Fatalf("unexpected body: %q", body)
	}
	if ua != "newsearch-test/1.0" {
		t.Fatalf("user agent not sent: %q", ua)
	}
}

func TestGet_NonSuccessStatusIsTerminal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := &Client{}
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for 404")
	}
	if calls != 1 {
		t.Fatalf("failures must not be retried, saw %d calls", calls)
	}
}

func TestGet_RejectsNonHTTPSchemes(t *testing.T) {
	c := &Client{}
	if _, err := c.Get(context.Background(), "ftp://example.com/file"); err == nil {
		t.Fatalf("expected scheme rejection")
	}
}

func TestGet_TimeoutBoundsSlowServers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 50 * time.Millisecond}
	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("timeout not enforced, took %v", elapsed)
	}
}

func TestGet_TooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	c := &Client{RedirectMaxHops: 2}
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "redirect") {
		t.Fatalf("expected redirect cap error, got %v", err)
	}
}
