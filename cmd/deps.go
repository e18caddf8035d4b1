package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-hub/internal/monitoring"
	"github.com/sells-group/research-hub/internal/research"
	"github.com/sells-group/research-hub/internal/store"
	"github.com/sells-group/research-hub/pkg/alphavantage"
	"github.com/sells-group/research-hub/pkg/anthropic"
	"github.com/sells-group/research-hub/pkg/openai"
	"github.com/sells-group/research-hub/pkg/tavily"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "research-hub.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initRunner(st store.Store, metrics *monitoring.Collector) (*research.Runner, error) {
	if cfg.Tavily.Key == "" {
		return nil, eris.New("tavily API key is required (RESEARCHHUB_TAVILY_KEY)")
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (RESEARCHHUB_ANTHROPIC_KEY)")
	}

	var searchOpts []tavily.Option
	if cfg.Tavily.BaseURL != "" {
		searchOpts = append(searchOpts, tavily.WithBaseURL(cfg.Tavily.BaseURL))
	}
	search := tavily.NewClient(cfg.Tavily.Key, searchOpts...)

	financeOpts := []alphavantage.Option{}
	if cfg.AlphaVantage.BaseURL != "" {
		financeOpts = append(financeOpts, alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL))
	}
	if cfg.AlphaVantage.RequestsPerMinute > 0 {
		financeOpts = append(financeOpts, alphavantage.WithRequestsPerMinute(cfg.AlphaVantage.RequestsPerMinute))
	}
	finance := alphavantage.NewClient(cfg.AlphaVantage.Key, financeOpts...)

	primary := anthropic.NewClient(cfg.Anthropic.Key)

	var fallbackOpts []openai.Option
	if cfg.OpenAI.BaseURL != "" {
		fallbackOpts = append(fallbackOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.Model != "" {
		fallbackOpts = append(fallbackOpts, openai.WithModel(cfg.OpenAI.Model))
	}
	fallback := openai.NewClient(cfg.OpenAI.Key, fallbackOpts...)

	return research.NewRunner(st, search, finance, primary, fallback, metrics, research.Config{
		Model:                cfg.Anthropic.Model,
		MaxTokens:            cfg.Anthropic.MaxTokens,
		SearchMaxResults:     cfg.Research.SearchMaxResults,
		CompetitorMaxResults: cfg.Research.CompetitorMaxResults,
		StageTimeout:         time.Duration(cfg.Research.StageTimeoutSecs) * time.Second,
	}), nil
}
