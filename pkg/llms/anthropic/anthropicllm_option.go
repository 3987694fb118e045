package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go/option"
)

// TokenEnvVarName is the environment variable with the default API key.
const TokenEnvVarName = "ANTHROPIC_API_KEY" //nolint:gosec

// Options configures the Anthropic client.
type Options struct {
	Token      string
	Model      string
	BaseURL    string
	HTTPClient option.HTTPClient
	// MaxTokens is used when the call does not specify max tokens.
	MaxTokens int64
	// Headers are added to every request, for example anthropic-beta.
	Headers map[string]string
}

// Option is a function that configures Options.
type Option func(*Options)

// WithToken sets the API key, ANTHROPIC_API_KEY is used when not set.
func WithToken(token string) Option {
	return func(opts *Options) {
		opts.Token = token
	}
}

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(opts *Options) {
		opts.Model = model
	}
}

// WithBaseURL overrides the API endpoint, empty value keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(opts *Options) {
		if baseURL != "" {
			opts.BaseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client option.HTTPClient) Option {
	return func(opts *Options) {
		opts.HTTPClient = client
	}
}

// WithMaxTokens sets the default max tokens of a response.
func WithMaxTokens(maxTokens int64) Option {
	return func(opts *Options) {
		opts.MaxTokens = maxTokens
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(opts *Options) {
		if opts.Headers == nil {
			opts.Headers = map[string]string{}
		}
		opts.Headers[key] = value
	}
}
