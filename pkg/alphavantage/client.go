// Package alphavantage provides a client for the Alpha Vantage financial
// data API. The free tier is heavily rate limited, so every request goes
// through a shared limiter.
package alphavantage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/research-hub/internal/resilience"
)

const defaultBaseURL = "https://www.alphavantage.co"

// Client looks up stock symbols and financial data.
type Client interface {
	// FindSymbol returns the best-matching ticker symbol for a company
	// name, or "" when no match exists. No match is not an error.
	FindSymbol(ctx context.Context, companyName string) (string, error)

	// Financials fetches quote, overview, and earnings for a symbol in
	// parallel. Sub-calls that fail leave their field nil; the bundle is
	// returned as long as at least one sub-call succeeds.
	Financials(ctx context.Context, symbol string) (*FinancialBundle, error)
}

// FinancialBundle groups the three financial payloads for one symbol.
// The payloads are kept opaque since Alpha Vantage field names are
// positional strings like "05. price".
type FinancialBundle struct {
	Symbol   string         `json:"symbol"`
	Quote    map[string]any `json:"quote,omitempty"`
	Overview map[string]any `json:"overview,omitempty"`
	Earnings map[string]any `json:"earnings,omitempty"`
}

type symbolSearchResponse struct {
	BestMatches []map[string]string `json:"bestMatches"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRequestsPerMinute overrides the default request rate limit.
func WithRequestsPerMinute(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		}
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
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates an Alpha Vantage API client. The default limiter
// matches the free-tier allowance of 5 requests per minute; transient
// failures are retried with exponential backoff.
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
		limiter: rate.NewLimiter(rate.Every(time.Minute/5), 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("alphavantage", "query")
	}
	return c
}

func (c *httpClient) FindSymbol(ctx context.Context, companyName string) (string, error) {
	var resp symbolSearchResponse
	err := c.query(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {companyName},
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.BestMatches) == 0 {
		return "", nil
	}
	return resp.BestMatches[0]["1. symbol"], nil
}

func (c *httpClient) Financials(ctx context.Context, symbol string) (*FinancialBundle, error) {
	bundle := &FinancialBundle{Symbol: symbol}

	g, gctx := errgroup.WithContext(ctx)
	var quote, overview, earnings map[string]any
	var quoteErr, overviewErr, earningsErr error

	g.Go(func() error {
		quoteErr = c.query(gctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, &quote)
		return nil
	})
	g.Go(func() error {
		overviewErr = c.query(gctx, url.Values{"function": {"OVERVIEW"}, "symbol": {symbol}}, &overview)
		return nil
	})
	g.Go(func() error {
		earningsErr = c.query(gctx, url.Values{"function": {"EARNINGS"}, "symbol": {symbol}}, &earnings)
		return nil
	})
	_ = g.Wait()

	if quoteErr == nil {
		bundle.Quote = quote
	}
	if overviewErr == nil {
		bundle.Overview = overview
	}
	if earningsErr == nil {
		bundle.Earnings = earnings
	}

	if quoteErr != nil && overviewErr != nil && earningsErr != nil {
		return nil, eris.Wrapf(quoteErr, "alphavantage: all financial lookups failed for %s", symbol)
	}
	return bundle, nil
}

func (c *httpClient) query(ctx context.Context, params url.Values, dest any) error {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.queryOnce(ctx, params, dest)
	})
}

func (c *httpClient) queryOnce(ctx context.Context, params url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "alphavantage: rate limiter wait")
	}

	params.Set("apikey", c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "alphavantage: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		kind := resilience.ClassifyTransportError(err)
		return resilience.NewProviderError("alphavantage", kind, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resilience.NewProviderError("alphavantage", resilience.KindNetwork, resp.StatusCode,
			eris.Wrap(err, "read response"))
	}

	if resp.StatusCode != http.StatusOK {
		kind := resilience.ClassifyStatus(resp.StatusCode)
		return resilience.NewProviderError("alphavantage", kind, resp.StatusCode,
			eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)))
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return resilience.NewProviderError("alphavantage", resilience.KindInvalidResponse, resp.StatusCode,
			eris.Wrap(err, "unmarshal response"))
	}
	return nil
}
