package tools

import (
	"slices"

	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/effective-security/xlog"
	"github.com/invopop/jsonschema"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/learnagent", "tools")

// Registry holds the tools discovered at startup.
// It is immutable after NewRegistry returns, so it is safe for concurrent use
// without locking.
type Registry struct {
	byName map[string]ITool
	list   []ITool
	defs   []llms.Tool
}

// NewRegistry returns a registry with the tools in the given order.
// When two tools have the same name, the first one wins.
func NewRegistry(list ...ITool) *Registry {
	r := &Registry{
		byName: make(map[string]ITool, len(list)),
	}
	for _, tool := range list {
		if tool == nil {
			continue
		}
		name := tool.Name()
		if _, exists := r.byName[name]; exists {
			logger.KV(xlog.WARNING,
				"status", "duplicate_tool_ignored",
				"tool", name,
			)
			continue
		}
		r.byName[name] = tool
		r.list = append(r.list, tool)
		r.defs = append(r.defs, Definition(tool))
	}
	return r
}

// Get returns the tool by exact name.
func (r *Registry) Get(name string) (ITool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.byName[name]
	return t, ok
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.list)
}

// IsEmpty returns true if no tools are registered.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.list))
	for _, t := range r.list {
		names = append(names, t.Name())
	}
	return names
}

// List returns a copy of the registered tools.
func (r *Registry) List() []ITool {
	if r == nil {
		return nil
	}
	return slices.Clone(r.list)
}

// Definitions returns the tool definitions to bind to a model call.
func (r *Registry) Definitions() []llms.Tool {
	if r == nil {
		return nil
	}
	return slices.Clone(r.defs)
}

// Definition returns the model tool definition for the tool.
func Definition(tool ITool) llms.Tool {
	params := tool.Parameters()
	if params == nil {
		params = &jsonschema.Schema{Type: "object"}
	}
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  params,
		},
	}
}
