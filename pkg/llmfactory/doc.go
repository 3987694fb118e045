// Package llmfactory provides configuration and a factory for LLM models,
// supporting OpenAI, Azure OpenAI (API key or Entra ID), Anthropic and Google AI.
package llmfactory
