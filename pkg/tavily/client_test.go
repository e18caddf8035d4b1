package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-hub/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantKind    resilience.Kind
		wantAnswer  string
		wantResults int
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"query": "Acme Corp market analysis",
				"answer": "Acme is a market leader.",
				"results": [
					{"title": "Acme overview", "url": "https://news.example.com/acme", "content": "Acme...", "score": 0.97},
					{"title": "Acme funding", "url": "https://example.com/funding", "content": "Raised...", "score": 0.91}
				]
			}`,
			wantAnswer:  "Acme is a market leader.",
			wantResults: 2,
		},
		{
			name:        "empty_results_is_success",
			status:      http.StatusOK,
			body:        `{"query": "Obscure LLC", "results": []}`,
			wantResults: 0,
		},
		{
			name:     "rate_limit",
			status:   http.StatusTooManyRequests,
			body:     `{"error": "rate limit exceeded"}`,
			wantErr:  "unexpected status 429",
			wantKind: resilience.KindRateLimited,
		},
		{
			name:     "server_error",
			status:   http.StatusInternalServerError,
			body:     `{"error": "internal"}`,
			wantErr:  "unexpected status 500",
			wantKind: resilience.KindInvalidResponse,
		},
		{
			name:     "malformed_response",
			status:   http.StatusOK,
			body:     `{invalid json`,
			wantErr:  "unmarshal response",
			wantKind: resilience.KindInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/search", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req SearchRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "test-key", req.APIKey)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))

			resp, err := client.Search(context.Background(), SearchRequest{
				Query:         "Acme Corp market analysis",
				SearchDepth:   DepthAdvanced,
				IncludeAnswer: true,
				MaxResults:    10,
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, resp)

				var pe *resilience.ProviderError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "tavily", pe.Provider)
				assert.Equal(t, tt.wantKind, pe.Kind)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantAnswer, resp.Answer)
			assert.Len(t, resp.Results, tt.wantResults)
		})
	}
}

func TestSearch_OverloadedIsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	_, err := client.Search(context.Background(), SearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
}

func TestSearch_RetriesTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"results": [{"title": "Acme", "url": "https://x", "content": "...", "score": 0.5}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	resp, err := client.Search(context.Background(), SearchRequest{Query: "Acme"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSearch_MalformedResponseIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{invalid json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	_, err := client.Search(context.Background(), SearchRequest{Query: "Acme"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
