package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweetpotato0/evoseek/source"
)

const resultsPage = `<html><body>
<div class="result">
  <a class="result__a" href="/l/?uddg=https%3A%2F%2Fexample.com%2Frace-report">Race report</a>
  <div class="result__snippet">The   colt won by two lengths
  at Randwick.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/second">Second story</a>
  <div class="result__snippet">Another result snippet.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.org/empty">No snippet here</a>
  <div class="result__snippet"></div>
</div>
</body></html>`

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "race results" {
			t.Errorf("query param = %q", r.URL.Query().Get("q"))
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	a := New(&Config{Endpoint: srv.URL + "/html/"})
	docs, err := a.Search(context.Background(), "race results", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2 (snippetless result skipped)", len(docs))
	}

	first := docs[0]
	if first.Kind != source.KindWeb {
		t.Errorf("kind = %q", first.Kind)
	}
	if first.Title != "Race report" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Snippet != "The colt won by two lengths at Randwick." {
		t.Errorf("snippet = %q", first.Snippet)
	}
	if first.URI != "https://example.com/race-report" {
		t.Errorf("uri = %q, want the unwrapped redirect target", first.URI)
	}
	if docs[0].Score <= docs[1].Score {
		t.Errorf("rank scores not descending: %v vs %v", docs[0].Score, docs[1].Score)
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	a := New(&Config{Endpoint: srv.URL + "/html/"})
	docs, err := a.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(docs))
	}
}

func TestSearchNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := New(&Config{Endpoint: srv.URL + "/html/"})
	if _, err := a.Search(context.Background(), "q", 3); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
