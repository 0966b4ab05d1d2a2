// Package search provides live web search as an evidence source, backed by
// the Tavily search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wayfind-ai/wayfind/pkg/flow"
	"github.com/wayfind-ai/wayfind/pkg/logger"
)

// DefaultEndpoint is the Tavily search endpoint.
const DefaultEndpoint = "https://api.tavily.com/search"

// TavilySearcherParams configures a TavilySearcher.
type TavilySearcherParams struct {
	APIKey string
	// Endpoint overrides DefaultEndpoint. Optional.
	Endpoint string
	// MaxResults caps how many results are merged into the passage.
	// Defaults to 3.
	MaxResults int
	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client
}

// TavilySearcher queries the Tavily API and merges the results into a
// single web passage. Provider failures do not surface as errors: the
// returned passage carries the failure text instead, so the downstream
// grading steps treat the result as ungrounded rather than aborting the
// query.
type TavilySearcher struct {
	apiKey     string
	endpoint   string
	maxResults int
	httpClient *http.Client
}

// NewTavilySearcher builds a searcher with sane defaults.
func NewTavilySearcher(params TavilySearcherParams) *TavilySearcher {
	endpoint := params.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TavilySearcher{
		apiKey:     params.APIKey,
		endpoint:   endpoint,
		maxResults: maxResults,
		httpClient: httpClient,
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search implements flow.WebSearcher.
func (s *TavilySearcher) Search(ctx context.Context, question string) (flow.Passage, error) {
	content, err := s.query(ctx, question)
	if err != nil {
		logger.Warn("[Search] Web search failed", "err", err)
		return flow.Passage{
			Content: fmt.Sprintf("Web search failed: %v", err),
			Origin:  flow.OriginWeb,
		}, nil
	}
	return flow.Passage{Content: content, Origin: flow.OriginWeb}, nil
}

func (s *TavilySearcher) query(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(searchRequest{Query: question, MaxResults: s.maxResults})
	if err != nil {
		return "", fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call search provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("search provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return "", fmt.Errorf("search provider returned no results")
	}

	parts := make([]string, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, "\n"), nil
}
