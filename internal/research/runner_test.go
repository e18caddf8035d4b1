package research

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-hub/internal/model"
	"github.com/sells-group/research-hub/internal/monitoring"
	"github.com/sells-group/research-hub/internal/store"
	"github.com/sells-group/research-hub/pkg/alphavantage"
	"github.com/sells-group/research-hub/pkg/anthropic"
	"github.com/sells-group/research-hub/pkg/openai"
	"github.com/sells-group/research-hub/pkg/tavily"
)

// --- fakes ---

type fakeSearch struct {
	mu    sync.Mutex
	calls []tavily.SearchRequest
	fn    func(req tavily.SearchRequest) (*tavily.SearchResponse, error)
}

func (f *fakeSearch) Search(_ context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.fn(req)
}

type fakeFinance struct {
	symbol     string
	symbolErr  error
	bundle     *alphavantage.FinancialBundle
	financeErr error
}

func (f *fakeFinance) FindSymbol(context.Context, string) (string, error) {
	return f.symbol, f.symbolErr
}

func (f *fakeFinance) Financials(context.Context, string) (*alphavantage.FinancialBundle, error) {
	return f.bundle, f.financeErr
}

type fakePrimary struct {
	resp *anthropic.MessageResponse
	err  error
}

func (f *fakePrimary) CreateMessage(context.Context, anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return f.resp, f.err
}

type fakeFallback struct {
	resp  *openai.ChatCompletionResponse
	err   error
	calls int
}

func (f *fakeFallback) ChatCompletion(context.Context, openai.ChatCompletionRequest) (*openai.ChatCompletionResponse, error) {
	f.calls++
	return f.resp, f.err
}

func okSearch() *fakeSearch {
	return &fakeSearch{fn: func(tavily.SearchRequest) (*tavily.SearchResponse, error) {
		return &tavily.SearchResponse{
			Answer: "Acme is growing.",
			Results: []tavily.SearchResult{
				{Title: "Acme news", URL: "https://news.example.com", Content: "Acme...", Score: 0.9},
			},
		}, nil
	}}
}

func failingSearch() *fakeSearch {
	return &fakeSearch{fn: func(tavily.SearchRequest) (*tavily.SearchResponse, error) {
		return nil, errors.New("search unavailable")
	}}
}

func okPrimary() *fakePrimary {
	return &fakePrimary{resp: &anthropic.MessageResponse{Content: []anthropic.ContentBlock{
		{Type: "text", Text: sampleReport},
	}}}
}

func newTestRunner(t *testing.T, st store.Store, search *fakeSearch, finance *fakeFinance,
	primary *fakePrimary, fallback *fakeFallback) *Runner {
	t.Helper()
	return NewRunner(st, search, finance, primary, fallback, monitoring.NewCollector(), Config{
		Model:                "claude-haiku-4-5-20251001",
		MaxTokens:            4000,
		SearchMaxResults:     10,
		CompetitorMaxResults: 5,
		StageTimeout:         5 * time.Second,
	})
}

func waitForTerminal(t *testing.T, st store.Store, researchID string) *model.ResearchRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := st.GetResearch(context.Background(), researchID)
		require.NoError(t, err)
		if rec.Status != model.ResearchStatusInProgress && rec.Status != model.ResearchStatusPending {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("research run did not reach a terminal status")
	return nil
}

// --- tests ---

func TestRunner_FullSuccess(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme", Website: "https://acme.com"})
	require.NoError(t, err)

	search := okSearch()
	finance := &fakeFinance{symbol: "ACME", bundle: &alphavantage.FinancialBundle{
		Symbol: "ACME",
		Quote:  map[string]any{"Global Quote": map[string]any{"05. price": "123.45"}},
	}}
	runner := newTestRunner(t, st, search, finance, okPrimary(), &fakeFallback{})

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)
	assert.Equal(t, model.ResearchStatusInProgress, rec.Status)

	final := waitForTerminal(t, st, rec.ID)
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.NotNil(t, final.SearchResults)
	assert.NotNil(t, final.FinancialData)
	assert.NotNil(t, final.CompetitorData)
	assert.Contains(t, final.ExecutiveSummary, "strong regional player")
	assert.NotEmpty(t, final.Competitors)

	// Both search calls happened with their distinct shapes.
	require.Len(t, search.calls, 2)
	assert.Equal(t, tavily.DepthAdvanced, search.calls[0].SearchDepth)
	assert.True(t, search.calls[0].IncludeAnswer)
	assert.Contains(t, search.calls[0].Query, "site:https://acme.com")
	assert.Equal(t, tavily.DepthBasic, search.calls[1].SearchDepth)

	// The log ends with the finalizing event.
	events := final.ProgressLog.Progress
	require.NotEmpty(t, events)
	assert.Equal(t, StepInitializing, events[0].Step)
	assert.Equal(t, StepFinalizing, events[len(events)-1].Step)
	assert.Equal(t, model.ProgressCompleted, events[len(events)-1].Status)
}

func TestRunner_StageIndependence(t *testing.T) {
	// Search always fails; everything else succeeds. The run still
	// completes with searchResults and competitorData absent.
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	finance := &fakeFinance{symbol: "ACME", bundle: &alphavantage.FinancialBundle{Symbol: "ACME", Quote: map[string]any{"k": "v"}}}
	runner := newTestRunner(t, st, failingSearch(), finance, okPrimary(), &fakeFallback{})

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	final := waitForTerminal(t, st, rec.ID)
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.Nil(t, final.SearchResults)
	assert.Nil(t, final.CompetitorData)
	assert.NotNil(t, final.FinancialData)
	assert.Contains(t, final.ExecutiveSummary, "strong regional player")

	var failedSteps []string
	for _, e := range final.ProgressLog.Progress {
		if e.Status == model.ProgressFailed {
			failedSteps = append(failedSteps, e.Step)
		}
	}
	assert.ElementsMatch(t, []string{StepWebSearch, StepCompetitorAnalysis}, failedSteps)
}

func TestRunner_PrivateCompanyIsNotAFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Tiny LLC"})
	require.NoError(t, err)

	runner := newTestRunner(t, st, okSearch(), &fakeFinance{symbol: ""}, okPrimary(), &fakeFallback{})

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	final := waitForTerminal(t, st, rec.ID)
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.Nil(t, final.FinancialData)

	var financialEvents []model.ProgressEvent
	for _, e := range final.ProgressLog.Progress {
		if e.Step == StepFinancialData {
			financialEvents = append(financialEvents, e)
		}
	}
	require.Len(t, financialEvents, 2)
	assert.Equal(t, model.ProgressCompleted, financialEvents[1].Status)
	assert.Contains(t, financialEvents[1].Message, "private company")
}

func TestRunner_FallbackOnCapacityError(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	primary := &fakePrimary{err: &sdk.Error{StatusCode: 529}}
	fallback := &fakeFallback{resp: &openai.ChatCompletionResponse{Choices: []openai.Choice{
		{Message: openai.Message{Role: "assistant", Content: sampleReport}},
	}}}
	runner := newTestRunner(t, st, okSearch(), &fakeFinance{}, primary, fallback)

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	final := waitForTerminal(t, st, rec.ID)
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.Equal(t, 1, fallback.calls)
	assert.Contains(t, final.ExecutiveSummary, "strong regional player")

	var sawFallbackEvent bool
	for _, e := range final.ProgressLog.Progress {
		if e.Step == StepAIAnalysis && e.Status == model.ProgressInProgress &&
			e.Message == "Primary AI provider at capacity, switching to fallback provider" {
			sawFallbackEvent = true
		}
	}
	assert.True(t, sawFallbackEvent, "expected a progress event documenting the fallback")
}

func TestRunner_NonCapacityErrorSkipsFallback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	primary := &fakePrimary{err: &sdk.Error{StatusCode: 500}}
	fallback := &fakeFallback{resp: &openai.ChatCompletionResponse{}}
	runner := newTestRunner(t, st, okSearch(), &fakeFinance{}, primary, fallback)

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	final := waitForTerminal(t, st, rec.ID)
	// The run still completes; only the AI fields are missing.
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.Zero(t, fallback.calls)
	assert.Empty(t, final.ExecutiveSummary)
	assert.Empty(t, final.Competitors)
}

func TestRunner_FallbackFailureFailsStageOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	primary := &fakePrimary{err: &sdk.Error{StatusCode: 429}}
	fallback := &fakeFallback{err: errors.New("fallback down too")}
	runner := newTestRunner(t, st, okSearch(), &fakeFinance{}, primary, fallback)

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	final := waitForTerminal(t, st, rec.ID)
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.Equal(t, 1, fallback.calls)
	assert.Empty(t, final.ExecutiveSummary)

	var aiFailed bool
	for _, e := range final.ProgressLog.Progress {
		if e.Step == StepAIAnalysis && e.Status == model.ProgressFailed {
			aiFailed = true
		}
	}
	assert.True(t, aiFailed)
}

func TestRunner_DuplicateStartRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	// Block the search stage so the first run stays active.
	release := make(chan struct{})
	search := &fakeSearch{fn: func(tavily.SearchRequest) (*tavily.SearchResponse, error) {
		<-release
		return &tavily.SearchResponse{}, nil
	}}
	runner := newTestRunner(t, st, search, &fakeFinance{}, okPrimary(), &fakeFallback{})

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	_, err = runner.Start(ctx, *c)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	waitForTerminal(t, st, rec.ID)

	// Only one record was ever created.
	latest, err := st.LatestResearch(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
}

func TestRunner_ExactlyOneTerminalWrite(t *testing.T) {
	// All stages fail. The run must still end COMPLETED with every
	// payload absent, never stuck IN_PROGRESS.
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	finance := &fakeFinance{symbolErr: errors.New("finance down")}
	primary := &fakePrimary{err: errors.New("model down")}
	runner := newTestRunner(t, st, failingSearch(), finance, primary, &fakeFallback{})

	rec, err := runner.Start(ctx, *c)
	require.NoError(t, err)

	final := waitForTerminal(t, st, rec.ID)
	assert.Equal(t, model.ResearchStatusCompleted, final.Status)
	assert.Nil(t, final.SearchResults)
	assert.Nil(t, final.FinancialData)
	assert.Nil(t, final.CompetitorData)
	assert.Empty(t, final.ExecutiveSummary)
}

func TestRunner_StartFailsWhenStoreHasActiveRun(t *testing.T) {
	// A stale IN_PROGRESS record (from another process) also blocks a
	// new start, not just the in-process guard.
	st := newTestStore(t)
	ctx := context.Background()
	c, err := st.CreateCompany(ctx, model.Company{OwnerEmail: "o@x.com", Name: "Acme"})
	require.NoError(t, err)

	_, err = st.CreateResearch(ctx, c.ID, model.ProgressLog{})
	require.NoError(t, err)

	runner := newTestRunner(t, st, okSearch(), &fakeFinance{}, okPrimary(), &fakeFallback{})
	_, err = runner.Start(ctx, *c)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}
