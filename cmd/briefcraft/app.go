package main

import (
	"context"
	"fmt"
	"sync"

	"briefcraft/internal/brief"
	"briefcraft/internal/generation"
	"briefcraft/internal/serp"
	"briefcraft/internal/stages"
	"briefcraft/internal/store"
	"briefcraft/internal/tokens"
)

var (
	sessionManager     *brief.SessionManager
	sessionManagerOnce sync.Once
)

// sessions returns the process-wide session manager. Sessions carry the
// configured model settings and serialize brief mutation per id.
func sessions() *brief.SessionManager {
	sessionManagerOnce.Do(func() {
		sessionManager = brief.NewSessionManager(cfg.LLM.Models)
	})
	return sessionManager
}

// openStore opens the configured brief store. The caller must call the
// returned close func.
func openStore() (store.BriefStore, func(), error) {
	s, err := store.NewSQLiteStore(cfg.Store.DatabasePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open brief store: %w", err)
	}
	return s, func() { _ = s.Close() }, nil
}

// newClient builds the generation client on the configured backend.
func newClient(ctx context.Context) (*generation.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key configured (set GEMINI_API_KEY or llm.api_key)")
	}

	var (
		backend generation.Backend
		err     error
	)
	switch cfg.LLM.Backend {
	case "genai":
		backend, err = generation.NewGenAIBackend(ctx, cfg.LLM.APIKey, logger)
	default:
		backend, err = generation.NewRESTBackend(generation.RESTConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLMTimeout(),
		}, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", cfg.LLM.Backend, err)
	}

	policy := generation.Policy{
		MaxAttempts: cfg.Generation.MaxAttempts,
		Delay:       cfg.RetryBackoff(),
	}
	return generation.NewClient(backend, cfg.LLM.Models,
		generation.WithPolicy(policy),
		generation.WithLogger(logger)), nil
}

// newOrchestrator wires the stage orchestrator.
func newOrchestrator(ctx context.Context) (*stages.Orchestrator, error) {
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	return stages.New(client, tokens.NewGuard(logger), logger), nil
}

// newFetcher builds the configured on-page fetcher. The returned close
// func tears down the browser when the rod fetcher is selected.
func newFetcher() (serp.OnPageFetcher, func()) {
	if cfg.Serp.Fetcher == "rod" {
		f := serp.NewRodFetcher(cfg.Serp.Headless, cfg.SerpTimeout(), logger)
		return f, func() { _ = f.Close() }
	}
	return serp.NewHTTPFetcher(cfg.SerpTimeout(), logger), func() {}
}
