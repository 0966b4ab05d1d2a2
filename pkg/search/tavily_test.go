package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wayfind-ai/wayfind/pkg/flow"
)

func TestSearchMergesResults(t *testing.T) {
	var gotAuth string
	var gotReq searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []searchResult{
			{Title: "one", Content: "first result"},
			{Title: "two", Content: "second result"},
		}})
	}))
	defer srv.Close()

	s := NewTavilySearcher(TavilySearcherParams{
		APIKey:   "tvly-test",
		Endpoint: srv.URL,
	})

	passage, err := s.Search(context.Background(), "latest go release")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotAuth != "Bearer tvly-test" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotReq.Query != "latest go release" || gotReq.MaxResults != 3 {
		t.Fatalf("request = %+v", gotReq)
	}
	if passage.Content != "first result\nsecond result" {
		t.Fatalf("passage content = %q", passage.Content)
	}
	if passage.Origin != flow.OriginWeb {
		t.Fatalf("passage origin = %q, want web", passage.Origin)
	}
}

func TestSearchDegradesOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	s := NewTavilySearcher(TavilySearcherParams{APIKey: "k", Endpoint: srv.URL})

	passage, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v, want degraded passage instead", err)
	}
	if !strings.HasPrefix(passage.Content, "Web search failed: ") {
		t.Fatalf("passage content = %q, want failure text", passage.Content)
	}
	if !strings.Contains(passage.Content, "quota exceeded") {
		t.Fatalf("passage content = %q, want provider message", passage.Content)
	}
}

func TestSearchDegradesWhenProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	s := NewTavilySearcher(TavilySearcherParams{APIKey: "k", Endpoint: srv.URL})

	passage, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v, want degraded passage instead", err)
	}
	if !strings.HasPrefix(passage.Content, "Web search failed: ") {
		t.Fatalf("passage content = %q", passage.Content)
	}
}

func TestSearchDegradesOnEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer srv.Close()

	s := NewTavilySearcher(TavilySearcherParams{APIKey: "k", Endpoint: srv.URL})

	passage, err := s.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !strings.Contains(passage.Content, "no results") {
		t.Fatalf("passage content = %q", passage.Content)
	}
}
