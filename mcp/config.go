package mcp

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Transport types
const (
	TransportHTTP  = "http"
	TransportSSE   = "sse"
	TransportStdio = "stdio"
)

// ServerConfig describes one MCP server.
type ServerConfig struct {
	// Name is the logical name of the server, used in logs and metrics.
	Name string `json:"name" yaml:"name" validate:"required"`
	// Transport is one of http, sse or stdio.
	Transport string `json:"transport" yaml:"transport" validate:"required,oneof=http sse stdio"`
	// URL is the endpoint for http and sse transports.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Command and Args start the server for stdio transport.
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	// Headers are added to every HTTP request sent to the server.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// Validate returns error if the configuration is incomplete.
func (c *ServerConfig) Validate() error {
	if c == nil {
		return errors.New("mcp: server config is nil")
	}
	if c.Name == "" {
		return errors.New("mcp: server name is required")
	}
	switch strings.ToLower(c.Transport) {
	case TransportHTTP, TransportSSE:
		if c.URL == "" {
			return errors.Newf("mcp: url is required for %s transport of server %q", c.Transport, c.Name)
		}
	case TransportStdio:
		if c.Command == "" {
			return errors.Newf("mcp: command is required for stdio transport of server %q", c.Name)
		}
	default:
		return errors.Newf("mcp: unsupported transport %q for server %q", c.Transport, c.Name)
	}
	return nil
}

// DefaultServers returns the Microsoft Learn MCP server configuration.
func DefaultServers() []*ServerConfig {
	return []*ServerConfig{
		{
			Name:      "microsoft_learn",
			Transport: TransportHTTP,
			URL:       "https://learn.microsoft.com/api/mcp",
		},
	}
}
