// Package llms provides the provider-neutral types used to talk to Language Models (LLMs).
//
// Each subpackage includes a provider-specific implementation of the Model interface.
// The internal directories within these subpackages contain provider-specific
// client and API implementations.
//
// The `llms.go` file contains the Model interface and provider capabilities.
//
// The `answer.go` file reduces a ContentResponse to an Answer, which is either
// a DirectAnswer with the final text or ToolCallsRequested with the decoded tool calls.
//
// The `options.go` file provides various options and functions to configure the calls.
package llms
