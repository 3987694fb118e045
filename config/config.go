package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/mcp"
	"github.com/effective-security/learnagent/pkg/llmfactory"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/pkg/llms/openai"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "config")

// Defaults
const (
	DefaultPort             = 3978
	DefaultLogLevel         = "INFO"
	DefaultProviderName     = "azure-openai"
	DefaultAzureAPIVersion  = "2024-10-21"
	DefaultStoreType        = StoreMemory
	DefaultStorePrefix      = "learnagent"
	DefaultRetention        = 24 * time.Hour
	DefaultCleanupInterval  = time.Hour
	DefaultDiscoveryTimeout = mcp.DefaultDiscoveryTimeout
)

// Store types
const (
	StoreNone   = "none"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Environment variables
const (
	EnvAzureOpenAIEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureOpenAIDeployment = "AZURE_OPENAI_DEPLOYMENT_NAME"
	EnvAzureOpenAIAPIVersion = "AZURE_OPENAI_API_VERSION"
	EnvAzureOpenAIAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvPort                  = "PORT"
)

// Config is the configuration of the agent.
type Config struct {
	// Port is the port of the messaging endpoint.
	Port int `json:"port" yaml:"port" validate:"min=1,max=65535"`
	// LogLevel is one of TRACE, DEBUG, INFO, NOTICE, WARNING, ERROR, CRITICAL.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=TRACE DEBUG INFO NOTICE WARNING ERROR CRITICAL"`

	LLM       *llmfactory.Config `json:"llm" yaml:"llm" validate:"required"`
	Assistant AssistantConfig    `json:"assistant" yaml:"assistant"`
	MCP       MCPConfig          `json:"mcp" yaml:"mcp"`
	Store     StoreConfig        `json:"store" yaml:"store"`
	Connector ConnectorConfig    `json:"connector" yaml:"connector"`
}

// AssistantConfig configures the model calls of the assistant.
type AssistantConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Models are the preferred model names, see llmfactory assistant_models.
	Models      []string `json:"models,omitempty" yaml:"models,omitempty"`
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"min=0,max=2"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"min=0"`
	// Verbose prints the turn scratchpad to the log.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// MCPConfig configures tool discovery.
type MCPConfig struct {
	Servers []*mcp.ServerConfig `json:"servers" yaml:"servers" validate:"dive"`
	// DiscoveryTimeout is a duration, such as 30s.
	DiscoveryTimeout string `json:"discovery_timeout,omitempty" yaml:"discovery_timeout,omitempty"`
}

// StoreConfig configures the conversation store.
type StoreConfig struct {
	Type        string `json:"type" yaml:"type" validate:"oneof=none memory redis"`
	RedisURL    string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" validate:"required_if=Type redis"`
	Prefix      string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	MaxMessages int    `json:"max_messages,omitempty" yaml:"max_messages,omitempty" validate:"min=0"`
	// Retention is a duration after which inactive conversations are removed.
	Retention string `json:"retention,omitempty" yaml:"retention,omitempty"`
	// CleanupInterval is a duration between cleanups.
	CleanupInterval string `json:"cleanup_interval,omitempty" yaml:"cleanup_interval,omitempty"`
}

// ConnectorConfig configures the outbound replies.
type ConnectorConfig struct {
	// Auth enables bearer tokens from the default Azure credential.
	Auth  bool   `json:"auth,omitempty" yaml:"auth,omitempty"`
	Scope string `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// LoadDotEnv loads .env, then .env.user overriding the values of .env.
// Missing files are ignored.
func LoadDotEnv(dir string) error {
	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to load %s", envFile)
	}
	userFile := filepath.Join(dir, ".env.user")
	if err := godotenv.Overload(userFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to load %s", userFile)
	}
	return nil
}

// Load returns the configuration from the file, or from the environment
// when file is empty.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, errors.WithMessagef(err, "failed to load config %s", file)
		}
		logger.KV(xlog.DEBUG, "status", "loaded", "file", file)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults sets the values not specified in the file.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		port, _ := strconv.Atoi(os.Getenv(EnvPort))
		c.Port = values.NumbersCoalesce(port, DefaultPort)
	}
	c.LogLevel = strings.ToUpper(values.StringsCoalesce(c.LogLevel, DefaultLogLevel))

	if c.LLM == nil || len(c.LLM.Providers) == 0 {
		c.LLM = DefaultLLMConfig()
	}

	if c.MCP.Servers == nil {
		c.MCP.Servers = mcp.DefaultServers()
	}
	c.MCP.DiscoveryTimeout = values.StringsCoalesce(c.MCP.DiscoveryTimeout, DefaultDiscoveryTimeout.String())

	c.Store.Type = strings.ToLower(values.StringsCoalesce(c.Store.Type, DefaultStoreType))
	c.Store.Prefix = values.StringsCoalesce(c.Store.Prefix, DefaultStorePrefix)
	c.Store.Retention = values.StringsCoalesce(c.Store.Retention, DefaultRetention.String())
	c.Store.CleanupInterval = values.StringsCoalesce(c.Store.CleanupInterval, DefaultCleanupInterval.String())
}

// DefaultLLMConfig returns the Azure OpenAI provider from the environment.
// An API key selects key authentication, otherwise Entra ID is used.
func DefaultLLMConfig() *llmfactory.Config {
	p := &llmfactory.ProviderConfig{
		Name:         DefaultProviderName,
		Type:         string(llms.ProviderAzureAD),
		BaseURL:      os.Getenv(EnvAzureOpenAIEndpoint),
		APIVersion:   values.StringsCoalesce(os.Getenv(EnvAzureOpenAIAPIVersion), DefaultAzureAPIVersion),
		Scope:        openai.DefaultScope,
		DefaultModel: os.Getenv(EnvAzureOpenAIDeployment),
	}
	if key := os.Getenv(EnvAzureOpenAIAPIKey); key != "" {
		p.Type = string(llms.ProviderAzure)
		p.Token = key
		p.Scope = ""
	}
	return &llmfactory.Config{
		Providers:       []*llmfactory.ProviderConfig{p},
		DefaultProvider: p.Name,
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	for _, p := range c.LLM.Providers {
		if p.BaseURL == "" && isAzure(p.ProviderType()) {
			return errors.Errorf("provider %q: endpoint is required, set %s", p.Name, EnvAzureOpenAIEndpoint)
		}
	}
	for _, s := range c.MCP.Servers {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for name, d := range map[string]string{
		"mcp.discovery_timeout":  c.MCP.DiscoveryTimeout,
		"store.retention":        c.Store.Retention,
		"store.cleanup_interval": c.Store.CleanupInterval,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}
	return nil
}

// GetLogLevel returns the xlog level, INFO when not recognized.
func (c *Config) GetLogLevel() xlog.LogLevel {
	switch strings.ToUpper(c.LogLevel) {
	case "TRACE":
		return xlog.TRACE
	case "DEBUG":
		return xlog.DEBUG
	case "NOTICE":
		return xlog.NOTICE
	case "WARNING":
		return xlog.WARNING
	case "ERROR":
		return xlog.ERROR
	case "CRITICAL":
		return xlog.CRITICAL
	}
	return xlog.INFO
}

// GetDiscoveryTimeout returns the MCP discovery timeout.
func (c *MCPConfig) GetDiscoveryTimeout() time.Duration {
	return parseDuration(c.DiscoveryTimeout, DefaultDiscoveryTimeout)
}

// GetRetention returns the retention of inactive conversations.
func (c *StoreConfig) GetRetention() time.Duration {
	return parseDuration(c.Retention, DefaultRetention)
}

// GetCleanupInterval returns the interval between cleanups.
func (c *StoreConfig) GetCleanupInterval() time.Duration {
	return parseDuration(c.CleanupInterval, DefaultCleanupInterval)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func isAzure(t llms.ProviderType) bool {
	return t == llms.ProviderAzure || t == llms.ProviderAzureAD
}
