package tools

import (
	"context"

	"github.com/invopop/jsonschema"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

// ITool is a tool for the llm agent to interact with different applications.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the JSON schema of the tool arguments.
	Parameters() *jsonschema.Schema

	// Call executes the tool with the given arguments and returns the textual result.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// Callback receives tool execution events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, args map[string]any)
	OnToolEnd(ctx context.Context, tool ITool, args map[string]any, output string)
	OnToolError(ctx context.Context, tool ITool, args map[string]any, err error)
	OnToolNotFound(ctx context.Context, name string)
}
