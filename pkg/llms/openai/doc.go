// Package openai implements llms.Model for the OpenAI chat completions API
// and Azure OpenAI deployments, authenticated with an API key (AZURE) or
// with an Entra ID token (AZURE_AD).
package openai
