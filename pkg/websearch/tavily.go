package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrTimeout  = errors.New("search timed out")
	ErrDisabled = errors.New("web search is not configured")
)

type (
	Searcher interface {
		Search(ctx context.Context, query string) (*SearchResponse, error)
	}

	SearchResult struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	}

	SearchResponse struct {
		Query   string         `json:"query"`
		Answer  string         `json:"answer,omitempty"`
		Results []SearchResult `json:"results"`
	}

	tavilyClient struct {
		baseURL    string
		apiKey     string
		maxResults int
		timeout    time.Duration
		httpClient *http.Client
	}

	tavilyRequest struct {
		Query       string `json:"query"`
		SearchDepth string `json:"search_depth"`
		MaxResults  int    `json:"max_results"`
	}
)

// NewTavilyClient builds a Tavily search client. Every search is bounded by
// timeout; exceeding it yields ErrTimeout.
func NewTavilyClient(baseURL, apiKey string, timeout time.Duration) Searcher {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &tavilyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		maxResults: 5,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *tavilyClient) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, ErrDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(tavilyRequest{Query: query, SearchDepth: "basic", MaxResults: c.maxResults})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("tavily api error: %s", resp.Status)
	}

	var out SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("tavily decode: %w", err)
	}
	return &out, nil
}
