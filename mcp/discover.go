package mcp

import (
	"context"
	"time"

	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/xlog"
)

// DefaultDiscoveryTimeout bounds startup discovery.
const DefaultDiscoveryTimeout = 30 * time.Second

// DiscoverTools connects to the client servers and builds the tool registry.
// On failure the registry is empty and the error is returned;
// callers at startup log it and continue without tools.
func DiscoverTools(ctx context.Context, c *Client, timeout time.Duration) (*tools.Registry, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	list, err := c.Tools(ctx)
	if err != nil {
		return tools.NewRegistry(), err
	}

	reg := tools.NewRegistry(list...)
	logger.ContextKV(ctx, xlog.INFO,
		"status", "discovered",
		"count", reg.Len(),
		"tools", reg.Names(),
	)
	return reg, nil
}
