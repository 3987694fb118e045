package genaiutils

import (
	"encoding/json"
	"testing"

	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"google.golang.org/genai"
)

func TestConvertJSONSchemaDefinition(t *testing.T) {
	t.Parallel()

	res, err := ConvertJSONSchemaDefinition(nil)
	require.NoError(t, err)
	assert.Nil(t, res)

	def := &jsonschema.Schema{
		Type:        "object",
		Description: "Fetch parameters",
		Properties: orderedmap.New[string, *jsonschema.Schema](
			orderedmap.WithInitialData(
				orderedmap.Pair[string, *jsonschema.Schema]{
					Key:   "url",
					Value: &jsonschema.Schema{Type: "string", Format: "uri", Description: "Article URL"},
				},
				orderedmap.Pair[string, *jsonschema.Schema]{
					Key: "languages",
					Value: &jsonschema.Schema{
						Type:  "array",
						Items: &jsonschema.Schema{Type: "string", Enum: []any{"csharp", "python"}},
					},
				},
				orderedmap.Pair[string, *jsonschema.Schema]{
					Key:   "limit",
					Value: &jsonschema.Schema{Type: "integer"},
				},
			),
		),
		Required: []string{"url"},
	}

	res, err = ConvertJSONSchemaDefinition(def)
	require.NoError(t, err)
	assert.Equal(t, genai.TypeObject, res.Type)
	assert.Equal(t, "Fetch parameters", res.Description)
	assert.Equal(t, []string{"url"}, res.Required)
	assert.Equal(t, []string{"url", "languages", "limit"}, res.PropertyOrdering)
	require.Len(t, res.Properties, 3)
	assert.Equal(t, genai.TypeString, res.Properties["url"].Type)
	assert.Equal(t, "uri", res.Properties["url"].Format)
	assert.Equal(t, genai.TypeArray, res.Properties["languages"].Type)
	require.NotNil(t, res.Properties["languages"].Items)
	assert.Equal(t, []string{"csharp", "python"}, res.Properties["languages"].Items.Enum)
	assert.Equal(t, genai.TypeInteger, res.Properties["limit"].Type)
}

func TestConvertJSONSchemaType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected genai.Type
	}{
		{"object", genai.TypeObject},
		{"string", genai.TypeString},
		{"number", genai.TypeNumber},
		{"integer", genai.TypeInteger},
		{"boolean", genai.TypeBoolean},
		{"array", genai.TypeArray},
		{"null", genai.TypeUnspecified},
		{"", genai.TypeUnspecified},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ConvertJSONSchemaType(tt.input), tt.input)
	}
}

func TestConvertTools(t *testing.T) {
	t.Parallel()

	searchDef := `{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "A query or topic about Microsoft/Azure products"}
		},
		"required": ["query"]
	}`
	var search jsonschema.Schema
	require.NoError(t, json.Unmarshal([]byte(searchDef), &search))

	res, err := ConvertTools(nil)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = ConvertTools([]llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "microsoft_docs_search",
				Description: "Search Microsoft documentation",
				Parameters:  &search,
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "microsoft_docs_fetch",
				Description: "Fetch complete articles",
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Len(t, res[0].FunctionDeclarations, 1)
	decl := res[0].FunctionDeclarations[0]
	assert.Equal(t, "microsoft_docs_search", decl.Name)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, []string{"query"}, decl.Parameters.Required)
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties["query"].Type)
	assert.Nil(t, res[1].FunctionDeclarations[0].Parameters)

	_, err = ConvertTools([]llms.Tool{{Type: "web_search"}})
	assert.EqualError(t, err, `tool [0]: unsupported type "web_search", want 'function'`)

	_, err = ConvertTools([]llms.Tool{{Type: "function"}})
	assert.EqualError(t, err, "tool [0]: missing function definition")
}

func TestFloat32Ptr(t *testing.T) {
	assert.Nil(t, Float32Ptr(0))
	require.NotNil(t, Float32Ptr(0.7))
	assert.Equal(t, float32(0.7), *Float32Ptr(0.7))
}
