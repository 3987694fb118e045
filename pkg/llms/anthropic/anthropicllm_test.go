package anthropic_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/pkg/llms/anthropic"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestNew(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "")

	tests := []struct {
		name        string
		opts        []anthropic.Option
		wantErr     bool
		errContains string
	}{
		{
			name:        "missing token",
			opts:        []anthropic.Option{anthropic.WithModel("claude-3-5-sonnet-20241022")},
			wantErr:     true,
			errContains: "missing API key",
		},
		{
			name:        "missing model",
			opts:        []anthropic.Option{anthropic.WithToken("fake-token")},
			wantErr:     true,
			errContains: "model is required",
		},
		{
			name: "valid configuration",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
			},
		},
		{
			name: "with custom base URL",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithBaseURL("https://custom.anthropic.com"),
			},
		},
		{
			name: "with custom HTTP client",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithHTTPClient(&http.Client{}),
			},
		},
		{
			name: "with headers",
			opts: []anthropic.Option{
				anthropic.WithToken("fake-token"),
				anthropic.WithModel("claude-3-5-sonnet-20241022"),
				anthropic.WithHeader("anthropic-beta", "beta-feature-1"),
				anthropic.WithMaxTokens(1024),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allm, err := anthropic.New(tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, allm)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, allm.Client)
				assert.Equal(t, "claude-3-5-sonnet-20241022", allm.GetName())
				assert.Equal(t, llms.ProviderAnthropic, allm.GetProviderType())
			}
		})
	}
}

func TestNewWithEnvironmentVariable(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "env-token")

	llm, err := anthropic.New(anthropic.WithModel("claude-3-5-sonnet-20241022"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", llm.Options.Token)
	assert.EqualValues(t, anthropic.DefaultMaxTokens, llm.Options.MaxTokens)
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		messages     []llms.Message
		wantMessages int
		wantSystem   string
		errContains  string
	}{
		{
			name:     "empty messages",
			messages: []llms.Message{},
		},
		{
			name: "system message only",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleSystem, "You are a knowledgeable assistant."),
			},
			wantSystem: "You are a knowledgeable assistant.",
		},
		{
			name: "multiple system messages",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleSystem, "You are a knowledgeable assistant."),
				llms.MessageFromTextParts(llms.RoleSystem, "Provide links to documentation."),
			},
			wantSystem: "You are a knowledgeable assistant.\nProvide links to documentation.",
		},
		{
			name: "tool round history",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleSystem, "sys"),
				llms.MessageFromTextParts(llms.RoleHuman, "What is Azure Functions?"),
				llms.MessageFromTextParts(llms.RoleAI, "I'll use tools to help answer: microsoft_docs_search"),
				llms.MessageFromTextParts(llms.RoleHuman, "Tool Results:\n[microsoft_docs_search]: ..."),
			},
			wantMessages: 3,
			wantSystem:   "sys",
		},
		{
			name: "AI message with tool call and tool response",
			messages: []llms.Message{
				llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
					ID:           "call_123",
					FunctionCall: &llms.FunctionCall{Name: "microsoft_docs_search", Arguments: `{"query": "azure"}`},
				}),
				llms.MessageFromToolResponse(llms.RoleTool, llms.ToolCallResponse{
					ToolCallID: "call_123",
					Content:    "Azure Functions overview",
				}),
			},
			wantMessages: 2,
		},
		{
			name: "unsupported role",
			messages: []llms.Message{
				llms.MessageFromTextParts("generic", "Generic message"),
			},
			errContains: "unsupported message type",
		},
		{
			name: "tool call with invalid arguments",
			messages: []llms.Message{
				llms.MessageFromToolCalls(llms.RoleAI, llms.ToolCall{
					ID:           "call_123",
					FunctionCall: &llms.FunctionCall{Name: "microsoft_docs_search", Arguments: `{invalid-json}`},
				}),
			},
			errContains: "failed to unmarshal tool call arguments",
		},
		{
			name: "tool message with text",
			messages: []llms.Message{
				llms.MessageFromTextParts(llms.RoleTool, "Not a tool response"),
			},
			errContains: "invalid content type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			messages, system, err := anthropic.ProcessMessages(tt.messages)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Len(t, messages, tt.wantMessages)
			assert.Equal(t, tt.wantSystem, system)
		})
	}
}

func TestToTools(t *testing.T) {
	t.Parallel()

	props := orderedmap.New[string, *jsonschema.Schema]()
	props.Set("query", &jsonschema.Schema{Type: "string", Description: "search query"})

	assert.Nil(t, anthropic.ToTools(nil))

	res := anthropic.ToTools([]llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "microsoft_docs_search",
				Description: "Search Microsoft documentation",
				Parameters: &jsonschema.Schema{
					Type:       "object",
					Properties: props,
					Required:   []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "microsoft_docs_fetch",
				Description: "Fetch complete articles",
			},
		},
	})
	require.Len(t, res, 2)
	require.NotNil(t, res[0].OfTool)
	assert.Equal(t, "microsoft_docs_search", res[0].OfTool.Name)
	assert.Equal(t, []string{"query"}, res[0].OfTool.InputSchema.Required)
	assert.Contains(t, res[0].OfTool.InputSchema.Properties, "query")
	assert.Equal(t, "microsoft_docs_fetch", res[1].OfTool.Name)
	assert.Nil(t, res[1].OfTool.InputSchema.Properties)
}

const messageWithToolUse = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-5-sonnet-20241022",
  "content": [
    {"type": "text", "text": "Let me search the docs."},
    {"type": "tool_use", "id": "toolu_01", "name": "microsoft_docs_search", "input": {"query": "azure functions"}}
  ],
  "stop_reason": "tool_use",
  "stop_sequence": null,
  "usage": {"input_tokens": 25, "output_tokens": 15}
}`

func TestGenerateContent(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "fake-token", r.Header.Get("X-Api-Key"))
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageWithToolUse))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithModel("claude-3-5-sonnet-20241022"),
		anthropic.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "You are a knowledgeable assistant."),
		llms.MessageFromTextParts(llms.RoleHuman, "What is Azure Functions?"),
	},
		llms.WithTemperature(0.7),
		llms.WithTools([]llms.Tool{{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "microsoft_docs_search",
				Description: "Search Microsoft documentation",
				Parameters:  &jsonschema.Schema{Type: "object"},
			},
		}}),
	)
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet-20241022", body["model"])
	assert.EqualValues(t, anthropic.DefaultMaxTokens, body["max_tokens"])
	assert.Equal(t, 0.7, body["temperature"])
	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "You are a knowledgeable assistant.", system[0].(map[string]any)["text"])
	assert.Len(t, body["messages"], 1)
	assert.Len(t, body["tools"], 1)

	require.Len(t, resp.Choices, 2)
	assert.Equal(t, "Let me search the docs.", resp.Choices[0].Content)
	assert.EqualValues(t, 25, resp.Choices[0].GenerationInfo["InputTokens"])
	assert.EqualValues(t, 40, resp.Choices[0].GenerationInfo["TotalTokens"])
	require.Len(t, resp.Choices[1].ToolCalls, 1)
	assert.Equal(t, "toolu_01", resp.Choices[1].ToolCalls[0].ID)

	answer, err := llms.AnswerFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, llms.ToolCallsRequested, answer.Kind)
	require.Len(t, answer.ToolCalls, 1)
	assert.Equal(t, "microsoft_docs_search", answer.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"query": "azure functions"}, answer.ToolCalls[0].Arguments)
}

func TestGenerateContent_Error(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"Internal server error"}}`))
	}))
	defer srv.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fake-token"),
		anthropic.WithModel("claude-3-5-sonnet-20241022"),
		anthropic.WithBaseURL(srv.URL),
	)
	require.NoError(t, err)

	_, err = llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "hi"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: failed to create message")
	assert.Equal(t, 1, calls, "no retries")
}

func TestIntegration_GenerateContent(t *testing.T) {
	if apiKey := os.Getenv(anthropic.TokenEnvVarName); apiKey == "" || apiKey == "fakekey" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}

	llm, err := anthropic.New(anthropic.WithModel("claude-3-5-haiku-20241022"))
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, "Reply with the single word: pong"),
	}, llms.WithMaxTokens(16))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Choices)
	assert.Contains(t, resp.Choices[0].Content, "pong")
}
