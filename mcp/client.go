package mcp

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/pkg/metricskey"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/xlog"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "mcp")

// ClientName is reported to MCP servers in the initialize handshake.
const ClientName = "learnagent"

// Version is reported to MCP servers in the initialize handshake.
var Version = "dev"

// Client is a multi-server MCP client.
type Client struct {
	impl    *mcpsdk.Client
	servers []*ServerConfig

	once       sync.Once
	connectErr error

	lock     sync.Mutex
	sessions []*session
}

type session struct {
	cfg *ServerConfig
	cs  *mcpsdk.ClientSession
}

// NewClient returns a client for the given servers.
// No connection is made until Connect or Tools is called.
func NewClient(servers ...*ServerConfig) *Client {
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: ClientName, Version: Version}, nil)
	return &Client{
		impl:    impl,
		servers: servers,
	}
}

// Servers returns the configured servers.
func (c *Client) Servers() []*ServerConfig {
	return c.servers
}

// Connect connects to every configured server.
// Connection is attempted once, the result is cached.
func (c *Client) Connect(ctx context.Context) error {
	c.once.Do(func() {
		c.connectErr = c.connect(ctx)
	})
	return c.connectErr
}

func (c *Client) connect(ctx context.Context) error {
	if len(c.servers) == 0 {
		return errors.New("mcp: no servers configured")
	}

	for _, cfg := range c.servers {
		transport, err := transportBuilder(ctx, cfg)
		if err != nil {
			metricskey.StatsMCPDiscoveryFailed.IncrCounter(1, cfg.Name)
			return errors.WithMessagef(err, "mcp: failed to build transport for %q", cfg.Name)
		}

		cs, err := c.impl.Connect(ctx, &detachedTransport{Transport: transport}, nil)
		if err != nil {
			metricskey.StatsMCPDiscoveryFailed.IncrCounter(1, cfg.Name)
			return errors.Wrapf(err, "mcp: failed to connect to %q", cfg.Name)
		}

		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "connected",
			"server", cfg.Name,
			"transport", cfg.Transport,
		)

		c.lock.Lock()
		c.sessions = append(c.sessions, &session{cfg: cfg, cs: cs})
		c.lock.Unlock()
	}
	return nil
}

// Tools lists the tools across all servers, in server order.
func (c *Client) Tools(ctx context.Context) ([]tools.ITool, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	c.lock.Lock()
	sessions := c.sessions
	c.lock.Unlock()

	var list []tools.ITool
	for _, s := range sessions {
		count := 0
		for t, err := range s.cs.Tools(ctx, nil) {
			if err != nil {
				metricskey.StatsMCPDiscoveryFailed.IncrCounter(1, s.cfg.Name)
				return nil, errors.Wrapf(err, "mcp: failed to list tools on %q", s.cfg.Name)
			}
			tool, err := newTool(s, t)
			if err != nil {
				return nil, err
			}
			list = append(list, tool)
			count++
		}
		metricskey.StatsMCPToolsDiscovered.IncrCounter(float64(count), s.cfg.Name)
	}
	return list, nil
}

// Close closes all sessions.
func (c *Client) Close() error {
	c.lock.Lock()
	sessions := c.sessions
	c.sessions = nil
	c.lock.Unlock()

	var errs error
	for _, s := range sessions {
		if err := s.cs.Close(); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "mcp: failed to close %q", s.cfg.Name))
		}
	}
	return errs
}
