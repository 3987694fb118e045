package openai

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/cockroachdb/errors"
)

// BearerTokenProvider returns tokens for a scope from an Entra ID credential.
type BearerTokenProvider struct {
	cred  azcore.TokenCredential
	scope string
}

// NewBearerTokenProvider returns a token provider for the scope.
// The credential caches and refreshes tokens.
func NewBearerTokenProvider(cred azcore.TokenCredential, scope string) *BearerTokenProvider {
	if scope == "" {
		scope = DefaultScope
	}
	return &BearerTokenProvider{
		cred:  cred,
		scope: scope,
	}
}

// Token returns a bearer token.
func (p *BearerTokenProvider) Token(ctx context.Context) (string, error) {
	tk, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{p.scope},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to get token for %s", p.scope)
	}
	return tk.Token, nil
}

// NewDefaultCredential returns the default Azure credential chain:
// environment, workload identity, managed identity, Azure CLI.
var NewDefaultCredential = func() (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create default Azure credential")
	}
	return cred, nil
}
