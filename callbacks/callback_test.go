package callbacks_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/callbacks"
	"github.com/effective-security/learnagent/mocks/mockassistants"
	"github.com/effective-security/learnagent/mocks/mockllms"
	"github.com/effective-security/learnagent/mocks/mocktools"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func newMocks(ctrl *gomock.Controller) (*mockassistants.MockIAssistant, *mocktools.MockITool, *mockllms.MockModel) {
	ast := mockassistants.NewMockIAssistant(ctrl)
	ast.EXPECT().Name().Return("test-assistant").AnyTimes()
	tool := mocktools.NewMockITool(ctrl)
	tool.EXPECT().Name().Return("test-tool").AnyTimes()
	model := mockllms.NewMockModel(ctrl)
	model.EXPECT().GetName().Return("gpt-4o-mini").AnyTimes()
	return ast, tool, model
}

func TestPrinter(t *testing.T) {
	ctrl := gomock.NewController(t)
	ast, tool, model := newMocks(ctrl)

	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeVerbose)
	ctx := context.Background()
	args := map[string]any{"query": "q"}

	cb.OnAssistantStart(ctx, ast, "test input")
	cb.OnLLMCallStart(ctx, model, []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "hi")})
	cb.OnLLMCallEnd(ctx, model, &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "x"}}})
	cb.OnToolStart(ctx, tool, args)
	cb.OnToolEnd(ctx, tool, args, "test output")
	cb.OnToolError(ctx, tool, args, errors.New("test error"))
	cb.OnToolNotFound(ctx, "missing")
	cb.OnAssistantEnd(ctx, ast, "test input", "final answer")
	cb.OnAssistantError(ctx, ast, "test input", errors.New("turn error"))

	res := buf.String()
	assert.Contains(t, res, "Assistant Start: test-assistant")
	assert.Contains(t, res, "Input: test input")
	assert.Contains(t, res, "LLM Call: gpt-4o-mini model, 1 messages")
	assert.Contains(t, res, "LLM Call End: gpt-4o-mini model, 1 choices")
	assert.Contains(t, res, "Tool Start: test-tool")
	assert.Contains(t, res, "Input: map[query:q]")
	assert.Contains(t, res, "Tool End: test-tool")
	assert.Contains(t, res, "Output: test output")
	assert.Contains(t, res, "Tool Error: test-tool: test error")
	assert.Contains(t, res, "Tool Not Found: missing")
	assert.Contains(t, res, "Assistant End: test-assistant\nfinal answer")
	assert.Contains(t, res, "Assistant Error: test-assistant: turn error")
}

func TestPrinter_DefaultMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	ast, tool, _ := newMocks(ctrl)

	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeDefault)
	cb.OnToolEnd(context.Background(), tool, nil, "secret output")
	cb.OnAssistantEnd(context.Background(), ast, "in", "secret answer")

	res := buf.String()
	assert.Contains(t, res, "Tool End: test-tool")
	assert.NotContains(t, res, "secret output")
	assert.NotContains(t, res, "secret answer")
}

func TestFanout(t *testing.T) {
	ctrl := gomock.NewController(t)
	ast, tool, model := newMocks(ctrl)

	first := mockassistants.NewMockCallback(ctrl)
	second := mockassistants.NewMockCallback(ctrl)
	fanout := callbacks.NewFanout(first)
	fanout.Add(second)

	ctx := context.Background()
	resp := &llms.ContentResponse{}
	args := map[string]any{}
	err := errors.New("e")

	for _, cb := range []*mockassistants.MockCallback{first, second} {
		cb.EXPECT().OnAssistantStart(ctx, ast, "in")
		cb.EXPECT().OnAssistantEnd(ctx, ast, "in", "out")
		cb.EXPECT().OnAssistantError(ctx, ast, "in", err)
		cb.EXPECT().OnLLMCallStart(ctx, model, gomock.Nil())
		cb.EXPECT().OnLLMCallEnd(ctx, model, resp)
		cb.EXPECT().OnToolStart(ctx, tool, args)
		cb.EXPECT().OnToolEnd(ctx, tool, args, "out")
		cb.EXPECT().OnToolError(ctx, tool, args, err)
		cb.EXPECT().OnToolNotFound(ctx, "missing")
	}

	fanout.OnAssistantStart(ctx, ast, "in")
	fanout.OnAssistantEnd(ctx, ast, "in", "out")
	fanout.OnAssistantError(ctx, ast, "in", err)
	fanout.OnLLMCallStart(ctx, model, nil)
	fanout.OnLLMCallEnd(ctx, model, resp)
	fanout.OnToolStart(ctx, tool, args)
	fanout.OnToolEnd(ctx, tool, args, "out")
	fanout.OnToolError(ctx, tool, args, err)
	fanout.OnToolNotFound(ctx, "missing")
}

func TestPackageLoggerAndNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	ast, tool, model := newMocks(ctrl)

	logger := xlog.NewPackageLogger("github.com/effective-security/learnagent", "callbacks_test")
	ctx := context.Background()
	resp := &llms.ContentResponse{}
	err := errors.New("e")

	pl := callbacks.NewPackageLogger(logger)
	noop := callbacks.NewNoop()
	fanout := callbacks.NewFanout(pl, noop)

	assert.NotPanics(t, func() {
		fanout.OnAssistantStart(ctx, ast, "in")
		fanout.OnAssistantEnd(ctx, ast, "in", "out")
		fanout.OnAssistantError(ctx, ast, "in", err)
		fanout.OnLLMCallStart(ctx, model, nil)
		fanout.OnLLMCallEnd(ctx, model, resp)
		fanout.OnToolStart(ctx, tool, nil)
		fanout.OnToolEnd(ctx, tool, nil, "out")
		fanout.OnToolError(ctx, tool, nil, err)
		fanout.OnToolNotFound(ctx, "missing")
	})
}
