package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-groundqa/internal/agent"
	"github.com/ahrav/go-groundqa/internal/config"
	"github.com/ahrav/go-groundqa/internal/llm"
	"github.com/ahrav/go-groundqa/internal/observability"
	"github.com/ahrav/go-groundqa/internal/pipeline"
	"github.com/ahrav/go-groundqa/internal/policy"
	"github.com/ahrav/go-groundqa/internal/retry"
	"github.com/ahrav/go-groundqa/internal/search"
)

// app holds the wired components of one command invocation.
type app struct {
	logger       *slog.Logger
	registry     *prometheus.Registry
	orchestrator *pipeline.Orchestrator
}

// newApp builds the logger, metrics, completion client, agents and pipeline
// from cfg. Logs go to logOut. When a metrics address is configured the
// metrics server runs until ctx is done.
func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger, err := observability.NewLogger(cfg.LLM.Observability, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	reg := observability.NewRegistry()

	client, err := llm.NewClient(ctx, &cfg.LLM,
		llm.WithLogger(logger),
		llm.WithMetrics(observability.NewPromMetrics(reg)))
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}

	agents, err := agent.NewSet(client, cfg.Agent.Language)
	if err != nil {
		return nil, fmt.Errorf("create agents: %w", err)
	}

	orch, err := pipeline.New(pipeline.Deps{
		Policy:   policy.New(cfg.Policy),
		Searcher: search.New(cfg.Search),
		Retry:    retry.New(cfg.Retry, retry.WithLogger(logger)),
		Metrics:  pipeline.NewMetrics(reg),
		Logger:   logger,
	}.WithAgents(agents))
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	if addr := cfg.LLM.Observability.MetricsAddr; addr != "" {
		srv := observability.NewMetricsServer(addr, reg)
		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	return &app{logger: logger, registry: reg, orchestrator: orch}, nil
}
