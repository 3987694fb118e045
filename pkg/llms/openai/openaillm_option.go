package openai

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/learnagent/pkg/llms/openai/internal/openaiclient"
)

const (
	tokenEnvVarName        = "OPENAI_API_KEY"      //nolint:gosec
	modelEnvVarName        = "OPENAI_MODEL"        //nolint:gosec
	baseURLEnvVarName      = "OPENAI_BASE_URL"     //nolint:gosec
	baseAPIBaseEnvVarName  = "OPENAI_API_BASE"     //nolint:gosec
	organizationEnvVarName = "OPENAI_ORGANIZATION" //nolint:gosec

	azureEndpointEnvVarName   = "AZURE_OPENAI_ENDPOINT"
	azureDeploymentEnvVarName = "AZURE_OPENAI_DEPLOYMENT_NAME"
	azureAPIVersionEnvVarName = "AZURE_OPENAI_API_VERSION"
	azureAPIKeyEnvVarName     = "AZURE_OPENAI_API_KEY" //nolint:gosec
)

const (
	// DefaultAPIVersion is the Azure OpenAI API version used when none is configured.
	DefaultAPIVersion = "2024-10-21"
	// DefaultScope is the Entra ID scope of Azure Cognitive Services.
	DefaultScope = "https://cognitiveservices.azure.com/.default"
)

type options struct {
	token        string
	model        string
	baseURL      string
	organization string
	provider     llms.ProviderType
	httpClient   openaiclient.Doer

	// required when provider is AZURE or AZURE_AD
	apiVersion string

	// used when provider is AZURE_AD
	credential azcore.TokenCredential
	scope      string
}

// Option is a functional option for the OpenAI client.
type Option func(*options)

// WithToken passes the OpenAI API token to the client. If not set, the token
// is read from the OPENAI_API_KEY environment variable,
// or AZURE_OPENAI_API_KEY for AZURE provider.
func WithToken(token string) Option {
	return func(opts *options) {
		opts.token = token
	}
}

// WithModel passes the OpenAI model to the client. If not set, the model
// is read from the OPENAI_MODEL environment variable.
// For Azure providers it is the deployment name, read from AZURE_OPENAI_DEPLOYMENT_NAME.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithBaseURL passes the OpenAI base url to the client. If not set, the base url
// is read from the OPENAI_BASE_URL environment variable. If still not set in ENV
// VAR OPENAI_BASE_URL, then the default value is https://api.openai.com/v1 is used.
// For Azure providers it is the resource endpoint, read from AZURE_OPENAI_ENDPOINT.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithOrganization passes the OpenAI organization to the client. If not set, the
// organization is read from the OPENAI_ORGANIZATION.
func WithOrganization(organization string) Option {
	return func(opts *options) {
		opts.organization = organization
	}
}

// WithProvider passes the api type to the client. If not set, the default value
// is ProviderOpenAI.
func WithProvider(provider llms.ProviderType) Option {
	return func(opts *options) {
		opts.provider = provider
	}
}

// WithAPIVersion passes the api version to the client. If not set, the value
// is read from AZURE_OPENAI_API_VERSION, then DefaultAPIVersion is used.
func WithAPIVersion(apiVersion string) Option {
	return func(opts *options) {
		opts.apiVersion = apiVersion
	}
}

// WithHTTPClient allows setting a custom HTTP client. If not set, the default value
// is http.DefaultClient.
func WithHTTPClient(client openaiclient.Doer) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithCredential sets the Entra ID credential for AZURE_AD provider.
// If not set, azidentity.DefaultAzureCredential is used.
func WithCredential(cred azcore.TokenCredential) Option {
	return func(opts *options) {
		opts.credential = cred
	}
}

// WithScope sets the Entra ID scope for AZURE_AD provider,
// the default is DefaultScope.
func WithScope(scope string) Option {
	return func(opts *options) {
		opts.scope = scope
	}
}
