package assistants

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/pkg/metricskey"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// ToolExecutor runs the tool calls requested by the model against the registry.
type ToolExecutor struct {
	registry *tools.Registry
	callback tools.Callback
}

// NewToolExecutor returns a ToolExecutor, callback is optional.
func NewToolExecutor(registry *tools.Registry, callback tools.Callback) *ToolExecutor {
	return &ToolExecutor{
		registry: registry,
		callback: callback,
	}
}

// Execute invokes the requested tool.
// It returns false with no error when the tool is not registered.
func (e *ToolExecutor) Execute(ctx context.Context, req llms.ToolCallRequest) (*llms.ToolResult, bool, error) {
	tool, ok := e.registry.Get(req.Name)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, req.Name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", req.Name,
			"call_id", req.ID,
		)
		if e.callback != nil {
			e.callback.OnToolNotFound(ctx, req.Name)
		}
		return nil, false, nil
	}

	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}

	if e.callback != nil {
		e.callback.OnToolStart(ctx, tool, args)
	}

	started := time.Now()
	output, err := tool.Call(ctx, args)
	metricskey.PerfToolCall.MeasureSince(started, req.Name)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, req.Name)
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "tool_call_failed",
			"tool", req.Name,
			"err", err.Error(),
		)
		if e.callback != nil {
			e.callback.OnToolError(ctx, tool, args, err)
		}
		return nil, true, errors.WithStack(err)
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, req.Name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_called",
		"tool", req.Name,
		"output", slices.StringUpto(output, 256),
		"elapsed", time.Since(started).String(),
	)
	if e.callback != nil {
		e.callback.OnToolEnd(ctx, tool, args, output)
	}

	return &llms.ToolResult{
		ToolName: req.Name,
		Text:     output,
	}, true, nil
}

// ExecuteAll runs the requests one after another, in order.
// Requests for unknown tools produce no result, the first tool error stops the run.
func (e *ToolExecutor) ExecuteAll(ctx context.Context, reqs []llms.ToolCallRequest) ([]llms.ToolResult, error) {
	results := make([]llms.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		res, found, err := e.Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}
