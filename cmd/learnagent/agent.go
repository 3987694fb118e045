package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/assistants"
	"github.com/effective-security/learnagent/callbacks"
	"github.com/effective-security/learnagent/config"
	"github.com/effective-security/learnagent/hosting"
	"github.com/effective-security/learnagent/mcp"
	"github.com/effective-security/learnagent/pkg/llmfactory"
	"github.com/effective-security/learnagent/pkg/llms/openai"
	"github.com/effective-security/learnagent/store"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// ShutdownTimeout bounds the wait for turns in flight.
const ShutdownTimeout = 15 * time.Second

type agent struct {
	cfg      *config.Config
	mcp      *mcp.Client
	registry *tools.Registry
	store    store.Store
	redis    *redis.Client
	server   *hosting.Server
}

func newAgent(ctx context.Context, cfg *config.Config) (*agent, error) {
	a := &agent{cfg: cfg}

	name := values.StringsCoalesce(cfg.Assistant.Name, assistants.DefaultName)
	model, err := llmfactory.New(cfg.LLM).AssistantModel(name, cfg.Assistant.Models...)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create LLM")
	}
	logger.KV(xlog.INFO,
		"status", "llm_ready",
		"provider", model.GetProviderType(),
		"model", model.GetName(),
	)

	a.mcp = mcp.NewClient(cfg.MCP.Servers...)
	a.registry = a.discoverTools(ctx)

	if err = a.openStore(); err != nil {
		return nil, err
	}

	fanout := callbacks.NewFanout(callbacks.NewPackageLogger(logger))
	var ast assistants.IAssistant
	opts := []assistants.Option{
		assistants.WithName(name),
		assistants.WithMaxTokens(cfg.Assistant.MaxTokens),
		assistants.WithCallback(fanout),
	}
	if cfg.Assistant.Temperature > 0 {
		opts = append(opts, assistants.WithTemperature(cfg.Assistant.Temperature))
	}
	if a.store != nil {
		opts = append(opts, assistants.WithStore(a.store))
	}
	ast = assistants.NewAssistant(model, a.registry, opts...)

	if cfg.Assistant.Verbose {
		sp := callbacks.NewScratchpad(callbacks.ModeVerbose)
		fanout.Add(sp)
		ast = &scratchpadAssistant{IAssistant: ast, scratchpad: sp}
	}
	logger.KV(xlog.INFO,
		"status", "assistant_ready",
		"assistant", ast.Name(),
		"tools", a.registry.Len(),
	)

	sender, err := a.newSender()
	if err != nil {
		return nil, err
	}

	adapter := hosting.NewAdapter(hosting.NewAgentApplication(ast), sender)
	a.server = hosting.NewServer(cfg.Port, hosting.NewHandler(adapter, a.health))
	return a, nil
}

// discoverTools is best-effort: on failure the agent runs without tools.
func (a *agent) discoverTools(ctx context.Context) *tools.Registry {
	logger.KV(xlog.INFO,
		"status", "connecting_to_mcp",
		"servers", len(a.cfg.MCP.Servers),
	)
	registry, err := mcp.DiscoverTools(ctx, a.mcp, a.cfg.MCP.GetDiscoveryTimeout())
	if err != nil {
		logger.KV(xlog.WARNING,
			"status", "mcp_discovery_failed",
			"reason", "continuing without tools",
			"err", err.Error(),
		)
		return tools.NewRegistry()
	}
	logger.KV(xlog.INFO,
		"status", "tools_loaded",
		"count", registry.Len(),
		"tools", registry.Names(),
	)
	return registry
}

func (a *agent) openStore() error {
	cfg := a.cfg.Store
	opts := []store.Option{store.WithMaxMessages(cfg.MaxMessages)}

	switch cfg.Type {
	case config.StoreNone:
	case config.StoreMemory:
		a.store = store.NewMemoryStore(opts...)
	case config.StoreRedis:
		ro, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "invalid redis_url")
		}
		a.redis = redis.NewClient(ro)
		a.store = store.NewRedisStore(a.redis, cfg.Prefix, opts...)
	default:
		return errors.Errorf("unsupported store type: %s", cfg.Type)
	}
	return nil
}

func (a *agent) newSender() (hosting.Sender, error) {
	var tokens hosting.TokenProvider
	if a.cfg.Connector.Auth {
		cred, err := openai.NewDefaultCredential()
		if err != nil {
			return nil, err
		}
		tokens = openai.NewBearerTokenProvider(cred,
			values.StringsCoalesce(a.cfg.Connector.Scope, hosting.DefaultConnectorScope))
	}
	return hosting.NewConnectorSender(nil, tokens), nil
}

func (a *agent) health() hosting.Health {
	return hosting.Health{
		Status: "ok",
		Tools:  a.registry.Len(),
		Names:  a.registry.Names(),
	}
}

// Run serves until ctx is cancelled, then shuts down.
func (a *agent) Run(ctx context.Context) error {
	if a.store != nil {
		go a.cleanupLoop(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.KV(xlog.INFO, "status", "shutting_down")
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		err = a.server.Shutdown(sctx)
		cancel()
	}

	a.close()
	return err
}

func (a *agent) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Store.GetCleanupInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := store.CleanupAll(ctx, a.store, a.cfg.Store.GetRetention()); err != nil {
				logger.KV(xlog.ERROR,
					"status", "cleanup_failed",
					"err", err.Error(),
				)
			}
		}
	}
}

func (a *agent) close() {
	if err := a.mcp.Close(); err != nil {
		logger.KV(xlog.WARNING, "status", "mcp_close_failed", "err", err.Error())
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.KV(xlog.WARNING, "status", "redis_close_failed", "err", err.Error())
		}
	}
	logger.KV(xlog.INFO, "status", "stopped")
}

// scratchpadAssistant logs the scratchpad of every turn.
type scratchpadAssistant struct {
	assistants.IAssistant
	scratchpad *callbacks.Scratchpad
}

func (s *scratchpadAssistant) Handle(ctx context.Context, text string) (string, error) {
	s.scratchpad.StartRun(ctx)
	reply, err := s.IAssistant.Handle(ctx, text)
	stats, transcript := s.scratchpad.EndRun(ctx)
	if stats != nil {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "turn_stats",
			"chat", stats.ChatID,
			"run", stats.RunID,
			"llm_calls", stats.LLMCalls,
			"tool_calls", stats.ToolsCalls,
			"input_tokens", stats.LLMInputTokens,
			"output_tokens", stats.LLMOutputTokens,
			"duration", stats.Duration.String(),
		)
		logger.ContextKV(ctx, xlog.TRACE, "scratchpad", string(transcript))
	}
	return reply, err
}
