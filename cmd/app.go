package cmd

import (
	"context"
	"fmt"

	"github.com/davitran/finsight/internal/agent"
	"github.com/davitran/finsight/internal/config"
	"github.com/davitran/finsight/internal/llm"
	"github.com/davitran/finsight/internal/log"
	"github.com/davitran/finsight/internal/rag"
	"github.com/davitran/finsight/internal/tools"
)

// app bundles the wired components a command needs.
type app struct {
	cfg      *config.Config
	logger   log.Logger
	client   llm.Client
	engine   *rag.Engine
	symbols  *tools.SymbolMapper
	registry *tools.Registry
	agent    *agent.Agent
}

// buildApp wires configuration, model client, retrieval engine, tools and
// the agent loop. The knowledge base is not initialized here; commands
// decide whether they need it.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := log.New(log.Config{Level: logLevel(), JSON: jsonLog})

	client, err := llm.NewOpenAIClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.ModelName, cfg.EmbedderModel, logger)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}

	summarizer, err := agent.NewSummarizer(client, logger)
	if err != nil {
		return nil, err
	}

	reranker := rag.NewHTTPReranker(cfg.RerankerURL, logger)
	engine, err := rag.NewEngine(rag.Options{
		DataDir:      cfg.DataDir,
		CacheDir:     cfg.CacheDir,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	}, client, reranker, summarizer.Summarize, logger)
	if err != nil {
		return nil, fmt.Errorf("creating retrieval engine: %w", err)
	}

	symbols, err := tools.NewSymbolMapper(logger)
	if err != nil {
		return nil, fmt.Errorf("loading symbol mapping: %w", err)
	}
	if cfg.SymbolsURL != "" {
		// Best effort, like the rest of the tool layer: the embedded
		// mapping stays in place when the remote copy is unreachable.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		if err := symbols.Refresh(ctx, cfg.SymbolsURL); err != nil {
			logger.Warn("symbol mapping refresh failed, using embedded mapping", "error", err)
		}
		cancel()
	}

	registry, err := buildRegistry(cfg, engine, symbols, summarizer, logger)
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	ag, err := agent.New(client, registry, agent.Options{
		MaxSteps:    cfg.MaxSteps,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		engine:   engine,
		symbols:  symbols,
		registry: registry,
		agent:    ag,
	}, nil
}

// buildRegistry assembles the full toolset in a fixed order.
func buildRegistry(cfg *config.Config, engine *rag.Engine, symbols *tools.SymbolMapper, summarizer *agent.Summarizer, logger log.Logger) (*tools.Registry, error) {
	registry := tools.NewRegistry(logger)

	arithmetic, err := tools.NewArithmeticTool(logger)
	if err != nil {
		return nil, err
	}
	registry.Register(arithmetic)

	finance, err := tools.NewFinanceToolset(tools.FinanceOptions{HTTPTimeout: cfg.HTTPTimeout}, symbols, logger)
	if err != nil {
		return nil, err
	}
	financeTools, err := finance.Tools()
	if err != nil {
		return nil, err
	}
	registry.Register(financeTools...)

	web := tools.NewWebToolset(tools.WebOptions{
		TavilyAPIKey: cfg.TavilyAPIKey,
		HTTPTimeout:  cfg.HTTPTimeout,
	}, summarizer.SummarizeOrFallback, logger)
	webTools, err := web.Tools()
	if err != nil {
		return nil, err
	}
	registry.Register(webTools...)

	knowledge, err := tools.NewKnowledgeTool(engine, logger)
	if err != nil {
		return nil, err
	}
	registry.Register(knowledge)

	return registry, nil
}
