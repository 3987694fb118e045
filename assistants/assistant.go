package assistants

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/xlog"
)

// Assistant answers a user message, running at most one round of tool calls.
type Assistant struct {
	client   *ModelClient
	executor *ToolExecutor
	cfg      *Config
}

var _ IAssistant = (*Assistant)(nil)

// NewAssistant returns an Assistant bound to the model and the registry.
// The registry is read-only and shared by all turns.
func NewAssistant(llm llms.Model, registry *tools.Registry, opts ...Option) *Assistant {
	cfg := NewConfig(opts...)

	var toolsCallback tools.Callback
	if cfg.CallbackHandler != nil {
		toolsCallback = cfg.CallbackHandler
	}

	return &Assistant{
		client: &ModelClient{
			llm:      llm,
			registry: registry,
			cfg:      cfg,
		},
		executor: NewToolExecutor(registry, toolsCallback),
		cfg:      cfg,
	}
}

// Name returns the name of the Assistant.
func (a *Assistant) Name() string {
	return a.cfg.Name
}

// Description returns the description of the Assistant.
func (a *Assistant) Description() string {
	return a.cfg.Description
}

// HasTools returns true when the model is called with tools bound.
func (a *Assistant) HasTools() bool {
	return a.client.HasTools()
}

// Handle produces the final answer for the user text.
func (a *Assistant) Handle(ctx context.Context, text string) (string, error) {
	cb := a.cfg.CallbackHandler
	if cb != nil {
		cb.OnAssistantStart(ctx, a, text)
	}

	started := time.Now()
	answer, err := a.handle(ctx, text)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "turn_failed",
			"elapsed", time.Since(started).String(),
			"err", err.Error(),
		)
		if cb != nil {
			cb.OnAssistantError(ctx, a, text, err)
		}
		return "", err
	}

	if cb != nil {
		cb.OnAssistantEnd(ctx, a, text, answer)
	}

	a.record(ctx, text, answer)
	return answer, nil
}

func (a *Assistant) handle(ctx context.Context, text string) (string, error) {
	prompt := a.cfg.SystemPrompt
	if !a.client.HasTools() {
		prompt = a.cfg.FallbackSystemPrompt
	}

	history := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, prompt),
		llms.MessageFromTextParts(llms.RoleHuman, text),
	}

	first, err := a.client.Answer(ctx, history)
	if err != nil {
		return "", err
	}
	if first.IsDirect() {
		return first.Text, nil
	}

	names := first.ToolNames()
	logger.ContextKV(ctx, xlog.INFO,
		"status", "tools_requested",
		"tools", names,
	)

	results, err := a.executor.ExecuteAll(ctx, first.ToolCalls)
	if err != nil {
		return "", err
	}

	history = append(history,
		llms.MessageFromTextParts(llms.RoleAI, ToolsUsedMessage(names)),
		llms.MessageFromTextParts(llms.RoleHuman, ToolResultsMessage(results)),
	)

	final, err := a.client.AnswerWithoutTools(ctx, history)
	if err != nil {
		return "", err
	}
	if !final.IsDirect() {
		return "", errors.Errorf("unexpected tool calls after tool results: %v", final.ToolNames())
	}
	return final.Text, nil
}

// record appends the turn to the transcript store, failures are logged only.
func (a *Assistant) record(ctx context.Context, text, answer string) {
	if a.cfg.Store == nil {
		return
	}
	err := a.cfg.Store.Add(ctx,
		llms.MessageFromTextParts(llms.RoleHuman, text),
		llms.MessageFromTextParts(llms.RoleAI, answer),
	)
	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "failed_to_record_turn",
			"err", err.Error(),
		)
	}
}
