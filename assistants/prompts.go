package assistants

import (
	"strings"

	"github.com/effective-security/learnagent/pkg/llms"
)

// SystemPrompt is used when tools are available.
const SystemPrompt = `You are a knowledgeable assistant specializing in Microsoft products and services.
You have access to Microsoft Learn MCP Server tools:
- microsoft_docs_search: Search Microsoft documentation
- microsoft_docs_fetch: Fetch complete articles
- microsoft_code_sample_search: Find code examples

Use these tools to provide accurate, up-to-date information with links to documentation.`

// FallbackSystemPrompt is used when no tools are available.
const FallbackSystemPrompt = "You are a knowledgeable assistant specializing in Microsoft products and services."

// WelcomeMessage is sent to new members and on /help.
const WelcomeMessage = "Welcome to the Microsoft Learn Assistant 🚀\n\n" +
	"I can help you with questions about Microsoft products using official Microsoft Learn documentation.\n\n" +
	"Type /help for this message or ask me about Azure, .NET, Microsoft 365, and more!"

// ErrorReplyPrefix starts the reply sent when a turn fails.
const ErrorReplyPrefix = "Sorry, I encountered an error: "

const (
	toolsUsedPrefix    = "I'll use tools to help answer: "
	toolResultsPrefix  = "Tool Results:\n"
	toolResultsSuffix  = "\n\nNow provide a comprehensive answer based on these results."
	toolResultsJoinSep = "\n"
)

// ToolsUsedMessage returns the assistant message naming the requested tools.
func ToolsUsedMessage(names []string) string {
	return toolsUsedPrefix + strings.Join(names, ", ")
}

// ToolResultsMessage returns the user message with the tool results
// and the instruction to produce the final answer.
func ToolResultsMessage(results []llms.ToolResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, "["+r.ToolName+"]: "+r.Text)
	}
	return toolResultsPrefix + strings.Join(lines, toolResultsJoinSep) + toolResultsSuffix
}

// ErrorReply returns the user-visible reply for a failed turn.
func ErrorReply(err error) string {
	return ErrorReplyPrefix + err.Error()
}
