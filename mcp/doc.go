// Package mcp provides a multi-server Model Context Protocol client.
//
// Tools advertised by the configured servers are exposed as tools.ITool,
// so they can be registered in tools.Registry and invoked by the assistant
// as if they were local.
package mcp
