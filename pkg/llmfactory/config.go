package llmfactory

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/x/configloader"
	"github.com/go-playground/validator/v10"
)

// Config specifies the LLM providers available to the agent.
type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"dive"`
	// DefaultProvider specifies the name of the default provider,
	// the first provider is used when empty.
	DefaultProvider string `json:"default_provider,omitempty" yaml:"default_provider,omitempty"`
	// AssistantModels specifies the mapping of assistants to models.
	// key is the assistant name, value is the list of preferred model names.
	// Use `default: <model_name>` as the default model for assistants.
	AssistantModels map[string][]string `json:"assistant_models,omitempty" yaml:"assistant_models,omitempty"`
}

// ProviderConfig specifies a single LLM provider.
type ProviderConfig struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	// Type specifies the type of API to use:
	// OPENAI|AZURE|AZURE_AD|ANTHROPIC|GOOGLEAI
	Type string `json:"type" yaml:"type" validate:"required,oneof=OPENAI OPEN_AI AZURE AZURE_AD ANTHROPIC GOOGLEAI"`
	// Token is the API key, not used by AZURE_AD.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// BaseURL is the API endpoint, for Azure this is the resource endpoint.
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	// OrgID specifies which organization's quota and billing should be used when making API requests.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	// Scope is the Entra ID token scope for AZURE_AD.
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
	// DefaultModel is the model name, or the deployment name for Azure.
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
}

// ProviderType returns the normalized provider type.
func (c *ProviderConfig) ProviderType() llms.ProviderType {
	t := strings.ToUpper(c.Type)
	if t == "OPEN_AI" {
		return llms.ProviderOpenAI
	}
	return llms.ProviderType(t)
}

// FindModel returns the first of models available in the provider,
// or the default model.
func (c *ProviderConfig) FindModel(models ...string) string {
	for _, model := range models {
		if slices.Contains(c.AvailableModels, model) {
			return model
		}
	}
	return c.DefaultModel
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid LLM configuration")
	}
	if c.DefaultProvider != "" && c.Provider(c.DefaultProvider) == nil {
		return errors.Errorf("default provider %q is not configured", c.DefaultProvider)
	}
	return nil
}

// Provider returns the provider by name, or nil.
func (c *Config) Provider(name string) *ProviderConfig {
	for _, p := range c.Providers {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
