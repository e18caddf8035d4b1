package research

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
	"github.com/sells-group/research-hub/internal/monitoring"
	"github.com/sells-group/research-hub/internal/store"
	"github.com/sells-group/research-hub/pkg/alphavantage"
	"github.com/sells-group/research-hub/pkg/anthropic"
	"github.com/sells-group/research-hub/pkg/openai"
	"github.com/sells-group/research-hub/pkg/tavily"
)

// Pipeline step labels shown to polling clients.
const (
	StepInitializing       = "Initializing"
	StepWebSearch          = "Web Search"
	StepFinancialData      = "Financial Data"
	StepCompetitorAnalysis = "Competitor Analysis"
	StepAIAnalysis         = "AI Analysis"
	StepFinalizing         = "Finalizing"
	StepError              = "Error"
)

// ErrAlreadyRunning is returned by Start when the company already has an
// active research run.
var ErrAlreadyRunning = eris.New("research already in progress for this company")

// Config holds the tunables for a research run.
type Config struct {
	// Model and token budget for the primary provider.
	Model     string
	MaxTokens int64

	// Result caps for the two search calls.
	SearchMaxResults     int
	CompetitorMaxResults int

	// StageTimeout bounds each external stage. Zero disables the bound.
	StageTimeout time.Duration
}

// Runner sequences the research pipeline stages and owns the terminal
// status write for each run.
type Runner struct {
	store    store.Store
	search   tavily.Client
	finance  alphavantage.Client
	primary  anthropic.Client
	fallback openai.Client
	recorder *Recorder
	metrics  *monitoring.Collector
	cfg      Config

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewRunner wires the pipeline dependencies together.
func NewRunner(st store.Store, search tavily.Client, finance alphavantage.Client,
	primary anthropic.Client, fallback openai.Client, metrics *monitoring.Collector, cfg Config) *Runner {
	return &Runner{
		store:    st,
		search:   search,
		finance:  finance,
		primary:  primary,
		fallback: fallback,
		recorder: NewRecorder(st),
		metrics:  metrics,
		cfg:      cfg,
		inflight: make(map[string]struct{}),
	}
}

// Start creates a research record for the company and launches the
// pipeline in the background. It returns ErrAlreadyRunning when the
// company has an IN_PROGRESS record or an active in-process run, and
// returns the new record immediately otherwise.
func (r *Runner) Start(ctx context.Context, company model.Company) (*model.ResearchRecord, error) {
	if !r.acquire(company.ID) {
		return nil, ErrAlreadyRunning
	}

	running, err := r.store.InProgressResearch(ctx, company.ID)
	if err != nil {
		r.release(company.ID)
		return nil, eris.Wrap(err, "research: check in-progress")
	}
	if running != nil {
		r.release(company.ID)
		return nil, ErrAlreadyRunning
	}

	seed := model.ProgressLog{Progress: []model.ProgressEvent{{
		Step:      StepInitializing,
		Status:    model.ProgressInProgress,
		Message:   "Starting market research",
		Timestamp: time.Now().UTC(),
	}}}

	rec, err := r.store.CreateResearch(ctx, company.ID, seed)
	if err != nil {
		r.release(company.ID)
		return nil, eris.Wrap(err, "research: create record")
	}

	if r.metrics != nil {
		r.metrics.RunStarted()
	}

	// The run outlives the triggering request, so it gets a fresh
	// context. Results are polled through the store.
	go func() {
		defer r.release(company.ID)
		r.run(context.Background(), rec.ID, company)
	}()

	return rec, nil
}

func (r *Runner) acquire(companyID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inflight[companyID]; ok {
		return false
	}
	r.inflight[companyID] = struct{}{}
	return true
}

func (r *Runner) release(companyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, companyID)
}

// run executes the stage sequence. Every stage failure is contained at
// its boundary; the single terminal status write happens in finalize.
func (r *Runner) run(ctx context.Context, researchID string, company model.Company) {
	started := time.Now()
	status := model.ResearchStatusCompleted

	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("research run panicked",
				zap.String("research_id", researchID),
				zap.Any("panic", p),
			)
			r.fail(ctx, researchID, fmt.Sprintf("unexpected internal error: %v", p))
			status = model.ResearchStatusFailed
		}
		if r.metrics != nil {
			r.metrics.RunFinished(status, time.Since(started))
		}
	}()

	zap.L().Info("starting market research",
		zap.String("research_id", researchID),
		zap.String("company", company.Name),
	)

	outcome := &model.ResearchOutcome{}
	outcome.SearchResults = r.webSearch(ctx, researchID, company)
	outcome.FinancialData = r.financialData(ctx, researchID, company)
	outcome.CompetitorData = r.competitorAnalysis(ctx, researchID, company)
	r.aiAnalysis(ctx, researchID, company, outcome)

	if err := r.finalize(ctx, researchID, outcome); err != nil {
		zap.L().Error("research finalize failed",
			zap.String("research_id", researchID),
			zap.Error(err),
		)
		r.fail(ctx, researchID, "failed to persist research results: "+err.Error())
		status = model.ResearchStatusFailed
		return
	}

	zap.L().Info("market research completed",
		zap.String("research_id", researchID),
		zap.Duration("elapsed", time.Since(started)),
	)
}

// stageContext bounds a single stage when a timeout is configured.
func (r *Runner) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.StageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.cfg.StageTimeout)
}

func (r *Runner) webSearch(ctx context.Context, researchID string, company model.Company) map[string]any {
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepWebSearch,
		Status:  model.ProgressInProgress,
		Message: "Searching the web for market information, news, and industry trends",
	})

	query := fmt.Sprintf("%s market analysis industry trends competitors revenue funding", company.Name)
	if company.Website != "" {
		query += " site:" + company.Website
	}

	stageCtx, cancel := r.stageContext(ctx)
	defer cancel()

	resp, err := r.search.Search(stageCtx, tavily.SearchRequest{
		Query:         query,
		SearchDepth:   tavily.DepthAdvanced,
		IncludeAnswer: true,
		MaxResults:    r.cfg.SearchMaxResults,
	})
	if err != nil {
		r.recordStageFailure(ctx, researchID, StepWebSearch, "Failed to retrieve web search results", err)
		return nil
	}

	topics := make([]string, 0, 3)
	for i, res := range resp.Results {
		if i == 3 {
			break
		}
		topics = append(topics, res.Title)
	}
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepWebSearch,
		Status:  model.ProgressCompleted,
		Message: "Successfully gathered market information from the web",
		Details: map[string]any{
			"results_found": len(resp.Results),
			"key_topics":    topics,
		},
	})

	return toPayload(resp)
}

func (r *Runner) financialData(ctx context.Context, researchID string, company model.Company) map[string]any {
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepFinancialData,
		Status:  model.ProgressInProgress,
		Message: "Looking up financial and stock market data",
	})

	stageCtx, cancel := r.stageContext(ctx)
	defer cancel()

	symbol, err := r.finance.FindSymbol(stageCtx, company.Name)
	if err != nil {
		r.recordStageFailure(ctx, researchID, StepFinancialData, "Failed to retrieve financial data", err)
		return nil
	}
	if symbol == "" {
		// Not an error: most registered companies are private.
		r.recorder.Record(ctx, researchID, model.ProgressEvent{
			Step:    StepFinancialData,
			Status:  model.ProgressCompleted,
			Message: "No stock symbol found - likely a private company",
			Details: map[string]any{
				"search_attempted": company.Name,
			},
		})
		return nil
	}

	bundle, err := r.finance.Financials(stageCtx, symbol)
	if err != nil {
		r.recordStageFailure(ctx, researchID, StepFinancialData, "Failed to retrieve financial data", err)
		return nil
	}

	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepFinancialData,
		Status:  model.ProgressCompleted,
		Message: "Found financial data for stock symbol: " + symbol,
		Details: map[string]any{
			"symbol":       symbol,
			"has_quote":    bundle.Quote != nil,
			"has_overview": bundle.Overview != nil,
			"has_earnings": bundle.Earnings != nil,
		},
	})

	return toPayload(bundle)
}

func (r *Runner) competitorAnalysis(ctx context.Context, researchID string, company model.Company) map[string]any {
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepCompetitorAnalysis,
		Status:  model.ProgressInProgress,
		Message: "Identifying key competitors and market landscape",
	})

	query := fmt.Sprintf("%s competitors alternative companies similar businesses industry", company.Name)

	stageCtx, cancel := r.stageContext(ctx)
	defer cancel()

	resp, err := r.search.Search(stageCtx, tavily.SearchRequest{
		Query:       query,
		SearchDepth: tavily.DepthBasic,
		MaxResults:  r.cfg.CompetitorMaxResults,
	})
	if err != nil {
		r.recordStageFailure(ctx, researchID, StepCompetitorAnalysis, "Failed to analyze competitors", err)
		return nil
	}

	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepCompetitorAnalysis,
		Status:  model.ProgressCompleted,
		Message: "Successfully identified competitive landscape",
		Details: map[string]any{
			"competitors_found": len(resp.Results),
		},
	})

	return toPayload(resp)
}

// aiAnalysis asks the primary model for the report, falling back to the
// secondary provider only on capacity failures. On success the parsed
// sections are written into outcome.
func (r *Runner) aiAnalysis(ctx context.Context, researchID string, company model.Company, outcome *model.ResearchOutcome) {
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepAIAnalysis,
		Status:  model.ProgressInProgress,
		Message: "Analyzing collected data and generating market research report",
	})

	prompt := BuildPrompt(company.Name, outcome.SearchResults, outcome.FinancialData, outcome.CompetitorData)

	stageCtx, cancel := r.stageContext(ctx)
	defer cancel()

	text, err := r.generate(stageCtx, ctx, researchID, prompt)
	if err != nil {
		r.recordStageFailure(ctx, researchID, StepAIAnalysis, "Failed to generate market analysis", err)
		return
	}

	parsed := ParseReport(text)
	outcome.ExecutiveSummary = parsed.ExecutiveSummary
	outcome.MarketPosition = parsed.MarketPosition
	if len(parsed.Competitors) > 0 {
		outcome.Competitors = parsed.Competitors
	}
	if len(parsed.Opportunities) > 0 {
		outcome.Opportunities = parsed.Opportunities
	}
	if len(parsed.Threats) > 0 {
		outcome.Threats = parsed.Threats
	}
	if len(parsed.Recommendations) > 0 {
		outcome.Recommendations = parsed.Recommendations
	}

	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepAIAnalysis,
		Status:  model.ProgressCompleted,
		Message: "Market research report generated",
		Details: map[string]any{
			"competitors_parsed":     len(parsed.Competitors),
			"opportunities_parsed":   len(parsed.Opportunities),
			"threats_parsed":         len(parsed.Threats),
			"recommendations_parsed": len(parsed.Recommendations),
		},
	})
}

// generate calls the primary provider, then the fallback when the
// primary reports a capacity failure. Any other primary error is final
// for this stage.
func (r *Runner) generate(stageCtx, logCtx context.Context, researchID, prompt string) (string, error) {
	resp, err := r.primary.CreateMessage(stageCtx, anthropic.MessageRequest{
		Model:     r.cfg.Model,
		MaxTokens: r.cfg.MaxTokens,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err == nil {
		return resp.Text(), nil
	}
	if !anthropic.IsOverloaded(err) {
		return "", err
	}

	zap.L().Warn("primary provider over capacity, using fallback",
		zap.String("research_id", researchID),
		zap.Error(err),
	)
	r.recorder.Record(logCtx, researchID, model.ProgressEvent{
		Step:    StepAIAnalysis,
		Status:  model.ProgressInProgress,
		Message: "Primary AI provider at capacity, switching to fallback provider",
	})
	if r.metrics != nil {
		r.metrics.FallbackUsed()
	}

	maxTokens := int(r.cfg.MaxTokens)
	fb, err := r.fallback.ChatCompletion(stageCtx, openai.ChatCompletionRequest{
		MaxTokens: &maxTokens,
		Messages:  []openai.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "fallback provider")
	}
	return fb.Text(), nil
}

// finalize performs the single COMPLETED write for a successful run.
func (r *Runner) finalize(ctx context.Context, researchID string, outcome *model.ResearchOutcome) error {
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepFinalizing,
		Status:  model.ProgressCompleted,
		Message: "Market research completed",
		Details: map[string]any{
			"has_search_results":  outcome.SearchResults != nil,
			"has_financial_data":  outcome.FinancialData != nil,
			"has_competitor_data": outcome.CompetitorData != nil,
			"has_report":          outcome.ExecutiveSummary != "",
		},
	})

	return r.store.CompleteResearch(ctx, researchID, model.ResearchStatusCompleted, outcome)
}

// fail performs the single FAILED write for a run that could not be
// persisted or panicked outside a stage boundary.
func (r *Runner) fail(ctx context.Context, researchID, message string) {
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    StepError,
		Status:  model.ProgressFailed,
		Message: message,
	})
	if err := r.store.SetResearchStatus(ctx, researchID, model.ResearchStatusFailed); err != nil {
		zap.L().Error("failed to mark research as failed",
			zap.String("research_id", researchID),
			zap.Error(err),
		)
	}
}

func (r *Runner) recordStageFailure(ctx context.Context, researchID, step, message string, err error) {
	zap.L().Warn("research stage failed",
		zap.String("research_id", researchID),
		zap.String("step", step),
		zap.Error(err),
	)
	r.recorder.Record(ctx, researchID, model.ProgressEvent{
		Step:    step,
		Status:  model.ProgressFailed,
		Message: message,
		Details: map[string]any{"error": err.Error()},
	})
}

// toPayload converts a typed provider response into the opaque map form
// stored on the record.
func toPayload(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
