package assistants

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/pkg/llmutils"
	"github.com/effective-security/learnagent/pkg/metricskey"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/xlog"
)

// ModelClient calls the language model, binding the registry tools when
// the registry is not empty.
type ModelClient struct {
	llm      llms.Model
	registry *tools.Registry
	cfg      *Config
}

// NewModelClient returns a ModelClient.
func NewModelClient(llm llms.Model, registry *tools.Registry, opts ...Option) *ModelClient {
	return &ModelClient{
		llm:      llm,
		registry: registry,
		cfg:      NewConfig(opts...),
	}
}

// HasTools returns true when calls are made with tools bound.
func (c *ModelClient) HasTools() bool {
	return !c.registry.IsEmpty()
}

// Answer calls the model with the registry tools bound, if any.
func (c *ModelClient) Answer(ctx context.Context, history []llms.Message) (llms.Answer, error) {
	var extra []llms.CallOption
	if c.HasTools() {
		extra = append(extra,
			llms.WithTools(c.registry.Definitions()),
			llms.WithToolChoice(llms.ToolChoiceAuto),
		)
	}
	return c.answer(ctx, history, extra...)
}

// AnswerWithoutTools calls the model without tools.
func (c *ModelClient) AnswerWithoutTools(ctx context.Context, history []llms.Message) (llms.Answer, error) {
	return c.answer(ctx, history)
}

func (c *ModelClient) answer(ctx context.Context, history []llms.Message, extra ...llms.CallOption) (llms.Answer, error) {
	resp, err := c.generate(ctx, history, extra...)
	if err != nil {
		return llms.Answer{}, err
	}

	answer, err := llms.AnswerFromResponse(resp)
	if err != nil {
		return llms.Answer{}, errors.WithStack(err)
	}
	metricskey.StatsAnswers.IncrCounter(1, answer.Kind.String())
	return answer, nil
}

func (c *ModelClient) generate(ctx context.Context, history []llms.Message, extra ...llms.CallOption) (*llms.ContentResponse, error) {
	provider := string(c.llm.GetProviderType())
	model := c.llm.GetName()

	started := time.Now()
	defer metricskey.PerfLLMCall.MeasureSince(started, provider, model)

	bytesSent := llmutils.CountMessagesContentSize(history)
	metricskey.StatsLLMMessagesSent.IncrCounter(float64(len(history)), provider, model)
	metricskey.StatsLLMBytesSent.IncrCounter(float64(bytesSent), provider, model)

	if cb := c.cfg.CallbackHandler; cb != nil {
		cb.OnLLMCallStart(ctx, c.llm, history)
	}

	resp, err := c.llm.GenerateContent(ctx, history, c.cfg.GetCallOptions(extra...)...)
	if err != nil {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, provider, model)
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "llm_call_failed",
			"provider", provider,
			"model", model,
			"err", err.Error(),
		)
		return nil, errors.WithStack(err)
	}

	if cb := c.cfg.CallbackHandler; cb != nil {
		cb.OnLLMCallEnd(ctx, c.llm, resp)
	}

	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), provider, model)
	tokensIn, tokensOut, _ := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), provider, model)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), provider, model)

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "llm_call",
		"model", model,
		"messages", len(history),
		"tools", len(extra) > 0,
		"input_tokens", tokensIn,
		"output_tokens", tokensOut,
		"elapsed", time.Since(started).String(),
	)
	return resp, nil
}
