package llms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

type unknownContent struct{}

func (unknownContent) isPart() {}

func TestMessage_MarshalJSON(t *testing.T) {
	t.Parallel()

	js, err := json.Marshal(MessageFromTextParts(RoleHuman, "How do I deploy Azure Functions?"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"human","text":"How do I deploy Azure Functions?"}`, string(js))

	_, err = json.Marshal(Message{Role: RoleAI, Parts: []ContentPart{TextPart("a"), unknownContent{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content part type: llms.unknownContent")
}

func TestMessage_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "text",
			msg:  MessageFromTextParts(RoleSystem, "You are a helpful assistant."),
		},
		{
			name: "multiple text parts",
			msg:  MessageFromTextParts(RoleHuman, "Hello", "world"),
		},
		{
			name: "tool call",
			msg: Message{
				Role: RoleAI,
				Parts: []ContentPart{
					TextPart("searching"),
					ToolCall{
						ID:   "call_1",
						Type: "function",
						FunctionCall: &FunctionCall{
							Name:      "microsoft_docs_search",
							Arguments: `{"query":"Azure Functions"}`,
						},
					},
				},
			},
		},
		{
			name: "tool response",
			msg: MessageFromToolResponse(RoleTool, ToolCallResponse{
				ToolCallID: "call_1",
				Name:       "microsoft_docs_search",
				Content:    "docs excerpt",
			}),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			js, err := json.Marshal(tc.msg)
			require.NoError(t, err)

			var got Message
			require.NoError(t, json.Unmarshal(js, &got))
			assert.Equal(t, tc.msg, got)
		})
	}
}

func TestMessage_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Message
		wantErr string
	}{
		{
			name: "compact text",
			input: `role: human
text: Hello, world!
`,
			want: MessageFromTextParts(RoleHuman, "Hello, world!"),
		},
		{
			name: "parts",
			input: `role: ai
parts:
- type: text
  text: Let me check.
- type: tool_call
  tool_call:
    id: "1"
    type: function
    function:
      name: search
      arguments: "{}"
`,
			want: Message{
				Role: RoleAI,
				Parts: []ContentPart{
					TextPart("Let me check."),
					ToolCall{ID: "1", Type: "function", FunctionCall: &FunctionCall{Name: "search", Arguments: "{}"}},
				},
			},
		},
		{
			name: "unknown part",
			input: `role: ai
parts:
- type: image_url
`,
			wantErr: `unknown content part type: "image_url"`,
		},
		{
			name: "tool call without payload",
			input: `role: ai
parts:
- type: tool_call
`,
			wantErr: "tool_call part without payload",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got Message
			err := yaml.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
