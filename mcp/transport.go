package mcp

import (
	"context"
	"net/http"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = buildTransport

func buildTransport(_ context.Context, cfg *ServerConfig) (mcpsdk.Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Transport) {
	case TransportHTTP:
		return &mcpsdk.StreamableClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: httpClient(cfg.Headers),
		}, nil
	case TransportSSE:
		return &mcpsdk.SSEClientTransport{
			Endpoint:   cfg.URL,
			HTTPClient: httpClient(cfg.Headers),
		}, nil
	case TransportStdio:
		// the process outlives the discovery context, it is stopped by Client.Close
		// #nosec G204 -- command originates from trusted server config
		cmd := exec.Command(cfg.Command, cfg.Args...)
		return &mcpsdk.CommandTransport{Command: cmd}, nil
	}
	return nil, errors.Newf("mcp: unsupported transport %q", cfg.Transport)
}

// detachedTransport connects the inner transport with a context that is not
// cancelled with the caller's, so the session lives until Client.Close.
// The initialize handshake is still bounded by the caller's context.
type detachedTransport struct {
	mcpsdk.Transport
}

func (t *detachedTransport) Connect(ctx context.Context) (mcpsdk.Connection, error) {
	return t.Transport.Connect(context.WithoutCancel(ctx))
}

func httpClient(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return nil
	}
	return &http.Client{
		Transport: &headerTransport{
			headers: headers,
			base:    http.DefaultTransport,
		},
	}
}

// headerTransport adds static headers to each request.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}
