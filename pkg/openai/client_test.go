package openai

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

func TestChatCompletion(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  string
		wantKind resilience.Kind
		wantText string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"id": "chatcmpl-123",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "## EXECUTIVE SUMMARY\nAcme leads."}}],
				"usage": {"prompt_tokens": 10, "completion_tokens": 5}
			}`,
			wantText: "## EXECUTIVE SUMMARY\nAcme leads.",
		},
		{
			name:     "rate_limit",
			status:   http.StatusTooManyRequests,
			body:     `{"error": {"message": "rate limit exceeded"}}`,
			wantErr:  "unexpected status 429",
			wantKind: resilience.KindRateLimited,
		},
		{
			name:     "server_error",
			status:   http.StatusInternalServerError,
			body:     `{"error": {"message": "internal"}}`,
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
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))

			resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
				Messages: []Message{{Role: "user", Content: "Analyze Acme"}},
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var pe *resilience.ProviderError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "openai", pe.Provider)
				assert.Equal(t, tt.wantKind, pe.Kind)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.wantText, resp.Text())
		})
	}
}

func TestChatCompletion_DefaultModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "choices": []}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []Message{{Role: "user", Content: "Hi"}},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Text())
}

func TestChatCompletion_RetriesTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(529)
			return
		}
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRetryConfig(fastRetry()))
	resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
		Messages: []Message{{Role: "user", Content: "Hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, int32(2), hits.Load())
}
