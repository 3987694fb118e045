package tools_test

import (
	"context"
	"testing"

	"github.com/effective-security/learnagent/mocks/mocktools"
	"github.com/effective-security/learnagent/tools"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type staticTool struct {
	name string
	out  string
}

func (t *staticTool) Name() string                   { return t.name }
func (t *staticTool) Description() string            { return "returns " + t.out }
func (t *staticTool) Parameters() *jsonschema.Schema { return nil }
func (t *staticTool) Call(_ context.Context, _ map[string]any) (string, error) {
	return t.out, nil
}

func TestRegistry(t *testing.T) {
	search := &staticTool{name: "microsoft_docs_search", out: "first"}
	fetch := &staticTool{name: "microsoft_docs_fetch", out: "fetched"}
	dup := &staticTool{name: "microsoft_docs_search", out: "second"}

	r := tools.NewRegistry(search, nil, fetch, dup)
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.IsEmpty())
	assert.Equal(t, []string{"microsoft_docs_search", "microsoft_docs_fetch"}, r.Names())

	got, ok := r.Get("microsoft_docs_search")
	require.True(t, ok)
	out, err := got.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	_, ok = r.Get("Microsoft_Docs_Search")
	assert.False(t, ok, "lookup must be exact")
	_, ok = r.Get("unknown")
	assert.False(t, ok)

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "microsoft_docs_search", defs[0].Function.Name)
	assert.Equal(t, "returns first", defs[0].Function.Description)
	require.NotNil(t, defs[0].Function.Parameters)
	assert.Equal(t, "object", defs[0].Function.Parameters.Type)

	// returned slices are copies
	list := r.List()
	list[0] = fetch
	got, _ = r.Get("microsoft_docs_search")
	assert.Equal(t, search, got)
	assert.Equal(t, search, r.List()[0])
}

func TestRegistry_Empty(t *testing.T) {
	for _, r := range []*tools.Registry{nil, tools.NewRegistry()} {
		assert.True(t, r.IsEmpty())
		assert.Equal(t, 0, r.Len())
		assert.Empty(t, r.Names())
		assert.Empty(t, r.Definitions())
		_, ok := r.Get("microsoft_docs_search")
		assert.False(t, ok)
	}
}

func TestDefinition_WithSchema(t *testing.T) {
	ctrl := gomock.NewController(t)
	mt := mocktools.NewMockITool(ctrl)

	schema := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"query"},
	}
	mt.EXPECT().Name().Return("microsoft_code_sample_search").AnyTimes()
	mt.EXPECT().Description().Return("Find code examples").AnyTimes()
	mt.EXPECT().Parameters().Return(schema).AnyTimes()

	def := tools.Definition(mt)
	assert.Equal(t, "microsoft_code_sample_search", def.Function.Name)
	assert.Equal(t, "Find code examples", def.Function.Description)
	assert.Same(t, schema, def.Function.Parameters)
}
