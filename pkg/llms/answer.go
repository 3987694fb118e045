package llms

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// AnswerKind discriminates the variants of Answer.
type AnswerKind int

const (
	// DirectAnswer carries the final text produced by the model.
	DirectAnswer AnswerKind = iota + 1
	// ToolCallsRequested carries one or more tool invocations requested by the model.
	ToolCallsRequested
)

func (k AnswerKind) String() string {
	switch k {
	case DirectAnswer:
		return "direct_answer"
	case ToolCallsRequested:
		return "tool_calls_requested"
	}
	return "unknown"
}

// ToolCallRequest is a tool invocation requested by the model.
type ToolCallRequest struct {
	// ID is the provider-assigned call ID, may be empty.
	ID string `json:"id,omitempty"`
	// Name of the tool to invoke.
	Name string `json:"name"`
	// Arguments are the decoded JSON arguments.
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the textual output of one executed tool call.
type ToolResult struct {
	ToolName string `json:"tool_name"`
	Text     string `json:"text"`
}

// Answer is the result of one model call: either a DirectAnswer with Text,
// or ToolCallsRequested with a non-empty ToolCalls list.
type Answer struct {
	Kind      AnswerKind
	Text      string
	ToolCalls []ToolCallRequest
}

// NewDirectAnswer returns a DirectAnswer.
func NewDirectAnswer(text string) Answer {
	return Answer{Kind: DirectAnswer, Text: text}
}

// NewToolCallsRequested returns a ToolCallsRequested answer.
// It panics when calls is empty.
func NewToolCallsRequested(calls []ToolCallRequest) Answer {
	if len(calls) == 0 {
		panic("llms: ToolCallsRequested requires at least one call")
	}
	return Answer{Kind: ToolCallsRequested, ToolCalls: calls}
}

// IsDirect returns true for a DirectAnswer.
func (a Answer) IsDirect() bool {
	return a.Kind == DirectAnswer
}

// ToolNames returns the names of the requested tools, in request order.
func (a Answer) ToolNames() []string {
	names := make([]string, 0, len(a.ToolCalls))
	for _, tc := range a.ToolCalls {
		names = append(names, tc.Name)
	}
	return names
}

// AnswerFromResponse converts a provider response into an Answer.
// Tool calls in any choice take precedence over text; otherwise the text of
// all choices is joined with a blank line.
func AnswerFromResponse(resp *ContentResponse) (Answer, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Answer{}, errors.WithStack(ErrEmptyResponse)
	}

	var calls []ToolCallRequest
	var texts []string
	for _, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		for _, tc := range choice.ToolCalls {
			req, err := ToolCallRequestFromToolCall(tc)
			if err != nil {
				return Answer{}, err
			}
			calls = append(calls, req)
		}
		if choice.Content != "" {
			texts = append(texts, choice.Content)
		}
	}

	if len(calls) > 0 {
		return NewToolCallsRequested(calls), nil
	}
	return NewDirectAnswer(strings.Join(texts, "\n\n")), nil
}

// ToolCallRequestFromToolCall decodes the JSON arguments of a provider tool call.
func ToolCallRequestFromToolCall(tc ToolCall) (ToolCallRequest, error) {
	if tc.FunctionCall == nil || tc.FunctionCall.Name == "" {
		return ToolCallRequest{}, errors.Newf("malformed tool call %q: missing function name", tc.ID)
	}
	req := ToolCallRequest{
		ID:        tc.ID,
		Name:      tc.FunctionCall.Name,
		Arguments: map[string]any{},
	}
	raw := strings.TrimSpace(tc.FunctionCall.Arguments)
	if raw == "" {
		return req, nil
	}
	if err := json.Unmarshal([]byte(raw), &req.Arguments); err != nil {
		return ToolCallRequest{}, errors.Wrapf(err, "malformed arguments for tool %s", req.Name)
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}
	return req, nil
}
