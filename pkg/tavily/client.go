// Package tavily provides a client for the Tavily web search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-hub/internal/resilience"
)

const defaultBaseURL = "https://api.tavily.com"

// Client performs web searches against the Tavily API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchDepth selects basic or advanced search.
type SearchDepth string

const (
	DepthBasic    SearchDepth = "basic"
	DepthAdvanced SearchDepth = "advanced"
)

// SearchRequest is the request body for POST /search. The API key is
// injected by the client.
type SearchRequest struct {
	APIKey        string      `json:"api_key"`
	Query         string      `json:"query"`
	SearchDepth   SearchDepth `json:"search_depth,omitempty"`
	IncludeAnswer bool        `json:"include_answer,omitempty"`
	MaxResults    int         `json:"max_results,omitempty"`
}

// SearchResult is a single search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is the response from POST /search. An empty Results
// slice is a valid outcome, not an error.
type SearchResponse struct {
	Query   string         `json:"query"`
	Answer  string         `json:"answer,omitempty"`
	Results []SearchResult `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a Tavily API client. Transient failures are retried
// with exponential backoff.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("tavily", "search")
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SearchResponse, error) {
		return c.search(ctx, req)
	})
}

func (c *httpClient) search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	req.APIKey = c.apiKey

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "tavily: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		kind := resilience.ClassifyTransportError(err)
		return nil, resilience.NewProviderError("tavily", kind, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewProviderError("tavily", resilience.KindNetwork, resp.StatusCode,
			eris.Wrap(err, "read response"))
	}

	if resp.StatusCode != http.StatusOK {
		kind := resilience.ClassifyStatus(resp.StatusCode)
		return nil, resilience.NewProviderError("tavily", kind, resp.StatusCode,
			eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, resilience.NewProviderError("tavily", resilience.KindInvalidResponse, resp.StatusCode,
			eris.Wrap(err, "unmarshal response"))
	}

	return &result, nil
}
