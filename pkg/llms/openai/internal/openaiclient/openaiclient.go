package openaiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/openai/openai-go/v3"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "openai")

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultChatModel = "gpt-4o-mini"
)

// ErrEmptyResponse is returned when the OpenAI API returns an empty response.
var ErrEmptyResponse = errors.New("empty response")

// Doer performs a HTTP request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider returns a bearer token for each request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Client is a client for the OpenAI and Azure OpenAI chat completions API.
type Client struct {
	Model    string
	Provider llms.ProviderType

	token         string
	tokenProvider TokenProvider
	baseURL       string
	organization  string
	httpClient    Doer

	// required when Provider is Azure or AzureAD
	apiVersion string
}

// Config is the client configuration.
type Config struct {
	Provider      llms.ProviderType
	Model         string
	Token         string
	TokenProvider TokenProvider
	BaseURL       string
	Organization  string
	APIVersion    string
	HTTPClient    Doer
}

// New returns a new OpenAI client.
func New(cfg Config) (*Client, error) {
	c := &Client{
		Model:         cfg.Model,
		Provider:      cfg.Provider,
		token:         cfg.Token,
		tokenProvider: cfg.TokenProvider,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		organization:  cfg.Organization,
		apiVersion:    cfg.APIVersion,
		httpClient:    cfg.HTTPClient,
	}
	if c.Provider == "" {
		c.Provider = llms.ProviderOpenAI
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.baseURL == "" {
		if IsAzure(c.Provider) {
			return nil, errors.Errorf("openai: endpoint is required for %s provider", c.Provider)
		}
		c.baseURL = DefaultBaseURL
	}

	switch c.Provider {
	case llms.ProviderAzureAD:
		if c.tokenProvider == nil {
			return nil, errors.New("openai: token provider is required for AZURE_AD provider")
		}
		if c.Model == "" {
			return nil, errors.New("openai: deployment name is required for AZURE_AD provider")
		}
	case llms.ProviderAzure:
		if c.token == "" {
			return nil, errors.New("openai: API key is required for AZURE provider")
		}
		if c.Model == "" {
			return nil, errors.New("openai: deployment name is required for AZURE provider")
		}
	case llms.ProviderOpenAI:
		if c.token == "" && c.tokenProvider == nil {
			return nil, errors.New("openai: API key is required")
		}
	default:
		return nil, errors.Errorf("openai: unsupported provider %q", c.Provider)
	}
	return c, nil
}

// IsAzure returns true for the Azure providers.
func IsAzure(provider llms.ProviderType) bool {
	return provider == llms.ProviderAzure || provider == llms.ProviderAzureAD
}

// CreateChat creates chat completion request.
func (c *Client) CreateChat(ctx context.Context, r *openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if r.Model == "" {
		r.Model = openai.ChatModel(c.defaultModel())
	}
	resp, err := c.createChat(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

func (c *Client) defaultModel() string {
	if c.Model == "" {
		return DefaultChatModel
	}
	return c.Model
}

func (c *Client) createChat(ctx context.Context, payload *openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}

	u := c.buildURL("/chat/completions", string(payload.Model))
	logger.ContextKV(ctx, xlog.DEBUG, "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if err = c.setHeaders(ctx, req); err != nil {
		return nil, err
	}

	r, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = r.Body.Close() }()

	if r.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("API returned unexpected status code: %d", r.StatusCode)
		if r.StatusCode == http.StatusNotFound {
			msg += ": url: " + u
		}
		var errResp errorMessage
		if err := json.NewDecoder(r.Body).Decode(&errResp); err != nil || errResp.Error.Message == "" {
			return nil, errors.New(msg)
		}
		return nil, errors.Errorf("%s: %s", msg, errResp.Error.Message)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	var resp openai.ChatCompletion
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return &resp, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) error {
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.tokenProvider != nil:
		token, err := c.tokenProvider.Token(ctx)
		if err != nil {
			return errors.WithMessage(err, "openai: failed to acquire token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case c.Provider == llms.ProviderAzure:
		req.Header.Set("api-key", c.token)
	default:
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	return nil
}

func (c *Client) buildURL(suffix string, model string) string {
	if IsAzure(c.Provider) {
		return c.buildAzureURL(suffix, model)
	}

	// open ai implement:
	return fmt.Sprintf("%s%s", c.baseURL, suffix)
}

func (c *Client) buildAzureURL(suffix string, model string) string {
	baseURL := strings.TrimRight(c.baseURL, "/")

	// azure example url:
	// /openai/deployments/{model}/chat/completions?api-version={api_version}
	return fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s",
		baseURL, url.PathEscape(model), suffix, url.QueryEscape(c.apiVersion),
	)
}

type errorMessage struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
