package assistants

import (
	"context"

	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "assistants")

//go:generate mockgen -source=assistants.go -destination=../mocks/mockassistants/assistants_mock.gen.go -package mockassistants

// IAssistant handles a single user message and returns the reply text.
type IAssistant interface {
	// Name returns the name of the Assistant.
	Name() string
	// Description returns the description of the Assistant.
	Description() string
	// Handle answers the user text.
	Handle(ctx context.Context, text string) (string, error)
}

// Callback receives assistant, model and tool events.
type Callback interface {
	tools.Callback
	OnAssistantStart(ctx context.Context, assistant IAssistant, input string)
	OnAssistantEnd(ctx context.Context, assistant IAssistant, input string, output string)
	OnAssistantError(ctx context.Context, assistant IAssistant, input string, err error)
	OnLLMCallStart(ctx context.Context, llm llms.Model, payload []llms.Message)
	OnLLMCallEnd(ctx context.Context, llm llms.Model, resp *llms.ContentResponse)
}
