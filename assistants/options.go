package assistants

import (
	"slices"

	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/store"
)

const (
	// DefaultName is the name of the Microsoft Learn assistant.
	DefaultName = "learn"
	// DefaultDescription describes the Microsoft Learn assistant.
	DefaultDescription = "Answers questions about Microsoft products using Microsoft Learn documentation."
	// DefaultTemperature is the sampling temperature of model calls.
	DefaultTemperature = 0.7
)

// Option is a function that can be used to modify the behavior of the Assistant Config.
type Option func(*Config)

// Config is the configuration of the assistant and its model calls.
type Config struct {
	Name        string
	Description string

	// SystemPrompt is used when tools are available.
	SystemPrompt string
	// FallbackSystemPrompt is used when no tools are available.
	FallbackSystemPrompt string

	// Model overrides the model or deployment name of the LLM.
	Model string
	// MaxTokens is the maximum number of tokens to generate to use in an LLM call.
	MaxTokens int
	// Temperature is the temperature for sampling to use in an LLM call, between 0 and 1.
	Temperature float64
	// TopP is the cumulative probability for top-p sampling in an LLM call.
	TopP float64
	// StopWords is a list of words to stop on to use in an LLM call.
	StopWords []string

	// CallbackHandler receives the assistant events
	CallbackHandler Callback
	// Store records the transcript of the turns, it is never read back into prompts.
	Store store.ConversationStore
}

// NewConfig returns the config with defaults and the options applied.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		Name:                 DefaultName,
		Description:          DefaultDescription,
		SystemPrompt:         SystemPrompt,
		FallbackSystemPrompt: FallbackSystemPrompt,
		Temperature:          DefaultTemperature,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Apply returns a copy of the config with the options applied.
func (c *Config) Apply(opts ...Option) *Config {
	cfg := *c
	cfg.StopWords = slices.Clone(c.StopWords)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// GetCallOptions returns the LLM call options.
func (c *Config) GetCallOptions(extra ...llms.CallOption) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(c.Temperature),
	}
	if c.Model != "" {
		opts = append(opts, llms.WithModel(c.Model))
	}
	if c.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.MaxTokens))
	}
	if c.TopP > 0 {
		opts = append(opts, llms.WithTopP(c.TopP))
	}
	if len(c.StopWords) > 0 {
		opts = append(opts, llms.WithStopWords(c.StopWords))
	}
	return append(opts, extra...)
}

// WithName sets the name of the Assistant.
func WithName(name string) Option {
	return func(o *Config) {
		o.Name = name
	}
}

// WithDescription sets the description of the Assistant.
func WithDescription(description string) Option {
	return func(o *Config) {
		o.Description = description
	}
}

// WithSystemPrompt sets the system prompt used when tools are available.
func WithSystemPrompt(prompt string) Option {
	return func(o *Config) {
		o.SystemPrompt = prompt
	}
}

// WithFallbackSystemPrompt sets the system prompt used when no tools are available.
func WithFallbackSystemPrompt(prompt string) Option {
	return func(o *Config) {
		o.FallbackSystemPrompt = prompt
	}
}

// WithModel specifies which model name to use.
func WithModel(model string) Option {
	return func(o *Config) {
		o.Model = model
	}
}

// WithMaxTokens specifies the max number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Config) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature specifies the model temperature.
func WithTemperature(temperature float64) Option {
	return func(o *Config) {
		o.Temperature = temperature
	}
}

// WithTopP specifies the top-p sampling.
func WithTopP(topP float64) Option {
	return func(o *Config) {
		o.TopP = topP
	}
}

// WithStopWords specifies a list of words to stop generation on.
func WithStopWords(stopWords []string) Option {
	return func(o *Config) {
		o.StopWords = stopWords
	}
}

// WithCallback sets the callback handler.
func WithCallback(callback Callback) Option {
	return func(o *Config) {
		o.CallbackHandler = callback
	}
}

// WithStore sets the transcript store.
func WithStore(s store.ConversationStore) Option {
	return func(o *Config) {
		o.Store = s
	}
}
