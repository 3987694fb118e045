package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/learnagent/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool is a tool hosted on a remote MCP server.
type Tool struct {
	session     *session
	name        string
	description string
	schema      *jsonschema.Schema
}

// ensure compliance with the interface
var _ tools.ITool = (*Tool)(nil)

func newTool(s *session, t *mcpsdk.Tool) (*Tool, error) {
	if t == nil || t.Name == "" {
		return nil, errors.Newf("mcp: server %q returned a tool without a name", s.cfg.Name)
	}
	schema, err := ToSchema(t.InputSchema)
	if err != nil {
		return nil, errors.WithMessagef(err, "mcp: invalid input schema for tool %q", t.Name)
	}
	return &Tool{
		session:     s,
		name:        t.Name,
		description: t.Description,
		schema:      schema,
	}, nil
}

// Name returns the tool name as advertised by the server.
func (t *Tool) Name() string {
	return t.name
}

// Description returns the tool description as advertised by the server.
func (t *Tool) Description() string {
	return t.description
}

// Parameters returns the input schema of the tool.
func (t *Tool) Parameters() *jsonschema.Schema {
	return t.schema
}

// Server returns the name of the server hosting the tool.
func (t *Tool) Server() string {
	return t.session.cfg.Name
}

// Call invokes the tool on the server and returns its textual content.
func (t *Tool) Call(ctx context.Context, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := t.session.cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "mcp: failed to call %q on %q", t.name, t.Server())
	}

	text := ResultText(res)
	if res.IsError {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tool_error_result",
			"server", t.Server(),
			"tool", t.name,
			"result", slices.StringUpto(text, 256),
		)
		return "", errors.Newf("mcp: tool %q returned error: %s", t.name, text)
	}
	return text, nil
}

// ResultText joins the content items of the result with new line.
// Text items are used as is, other items are JSON encoded.
func ResultText(res *mcpsdk.CallToolResult) string {
	if res == nil {
		return ""
	}
	parts := make([]string, 0, len(res.Content))
	for _, c := range res.Content {
		switch v := c.(type) {
		case *mcpsdk.TextContent:
			parts = append(parts, v.Text)
		default:
			js, err := json.Marshal(c)
			if err != nil {
				continue
			}
			parts = append(parts, string(js))
		}
	}
	return strings.Join(parts, "\n")
}

// ToSchema converts the MCP input schema to JSON schema.
func ToSchema(input any) (*jsonschema.Schema, error) {
	if input == nil {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	var raw []byte
	switch v := input.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		js, err := json.Marshal(input)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		raw = js
	}

	schema := new(jsonschema.Schema)
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, errors.WithStack(err)
	}
	if schema.Type == "" {
		schema.Type = "object"
	}
	return schema, nil
}
