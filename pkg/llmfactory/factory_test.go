package llmfactory_test

import (
	"context"
	"testing"

	"github.com/effective-security/learnagent/pkg/llmfactory"
	"github.com/effective-security/learnagent/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	provider string
	model    string
}

func (f *fakeLLM) GetName() string {
	return f.model
}

func (f *fakeLLM) GetProviderType() llms.ProviderType {
	return llms.ProviderType(f.provider)
}

func (f *fakeLLM) GenerateContent(_ context.Context, _ []llms.Message, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}, nil
}

func useFakeLLM(t *testing.T) {
	llmfactory.NewLLM = func(cfg *llmfactory.ProviderConfig, preferredModels ...string) (llms.Model, error) {
		return &fakeLLM{provider: cfg.Name, model: cfg.FindModel(preferredModels...)}, nil
	}
	t.Cleanup(func() {
		llmfactory.NewLLM = llmfactory.CreateLLM
	})
}

func Test_Factory(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "fakekey")
	t.Setenv("AZURE_OPENAI_API_KEY", "fakekey")
	t.Setenv("ANTHROPIC_API_KEY", "fakekey")
	t.Setenv("GOOGLE_API_KEY", "fakekey")

	cfg, err := llmfactory.LoadConfig("testdata/llm.yaml")
	require.NoError(t, err)
	require.Len(t, cfg.Providers, 5)
	assert.Equal(t, "fakekey", cfg.Provider("azure-key").Token)
	assert.Equal(t, llms.ProviderAzureAD, cfg.Provider("azure-learn").ProviderType())

	useFakeLLM(t)

	f := llmfactory.New(cfg)
	model, err := f.DefaultModel()
	require.NoError(t, err)
	fm := model.(*fakeLLM)
	assert.Equal(t, "gpt-4o", fm.model)
	assert.Equal(t, "azure-learn", fm.provider)

	tcases := []struct {
		names    []string
		model    string
		provider string
	}{
		{[]string{"gpt-4o-mini"}, "gpt-4o-mini", "azure-learn"},
		{[]string{"unknown", "gpt-41-mini"}, "gpt-41-mini", "azure-key"},
		{[]string{"o4-mini"}, "o4-mini", "openai"},
		{[]string{"non-existent-model"}, "gpt-4o", "azure-learn"},
	}
	for _, tc := range tcases {
		model, err = f.ModelByName(tc.names...)
		require.NoError(t, err)
		fm = model.(*fakeLLM)
		assert.Equal(t, tc.model, fm.model, tc.names)
		assert.Equal(t, tc.provider, fm.provider, tc.names)
	}

	types := []struct {
		pt       llms.ProviderType
		model    string
		provider string
	}{
		{llms.ProviderAzureAD, "gpt-4o", "azure-learn"},
		{llms.ProviderAzure, "gpt-41", "azure-key"},
		{llms.ProviderOpenAI, "gpt-4o-mini", "openai"},
		{llms.ProviderAnthropic, "claude-sonnet-4-20250514", "anthropic"},
		{llms.ProviderGoogleAI, "gemini-2.5-flash", "gemini"},
	}
	for _, tc := range types {
		model, err = f.ModelByType(tc.pt)
		require.NoError(t, err)
		fm = model.(*fakeLLM)
		assert.Equal(t, tc.model, fm.model, tc.pt)
		assert.Equal(t, tc.provider, fm.provider, tc.pt)
	}

	_, err = f.ModelByType("BEDROCK")
	assert.EqualError(t, err, "provider not found for type: BEDROCK")

	model, err = f.AssistantModel("learn")
	require.NoError(t, err)
	assert.Equal(t, "gpt-41-mini", model.GetName())

	model, err = f.AssistantModel("other", "o4-mini")
	require.NoError(t, err)
	assert.Equal(t, "o4-mini", model.GetName())

	model, err = f.AssistantModel("other")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", model.GetName())
}

func Test_Factory_Empty(t *testing.T) {
	f := llmfactory.New(&llmfactory.Config{})
	_, err := f.DefaultModel()
	assert.EqualError(t, err, "no providers configured")

	_, err = f.AssistantModel("learn")
	assert.EqualError(t, err, "no providers configured")
}

func Test_ModelCaching(t *testing.T) {
	useFakeLLM(t)

	f := llmfactory.New(&llmfactory.Config{
		Providers: []*llmfactory.ProviderConfig{
			{
				Name:            "openai",
				Type:            "OPEN_AI",
				AvailableModels: []string{"gpt-4o", "gpt-4o-mini"},
				DefaultModel:    "gpt-4o",
			},
		},
	})

	model1, err := f.ModelByType(llms.ProviderOpenAI)
	require.NoError(t, err)
	model2, err := f.ModelByType(llms.ProviderOpenAI)
	require.NoError(t, err)
	assert.Same(t, model1, model2)

	model3, err := f.ModelByName("gpt-4o-mini")
	require.NoError(t, err)
	model4, err := f.ModelByName("gpt-4o-mini")
	require.NoError(t, err)
	assert.Same(t, model3, model4)
}

func Test_Load(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "fakekey")

	f, err := llmfactory.Load("testdata/llm.yaml")
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = llmfactory.Load("testdata/non-existent.yaml")
	require.Error(t, err)

	_, err = llmfactory.LoadConfig("testdata/invalid.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid LLM configuration")

	cfg, err := llmfactory.LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
}

func Test_Validate(t *testing.T) {
	cfg := &llmfactory.Config{
		DefaultProvider: "missing",
		Providers: []*llmfactory.ProviderConfig{
			{Name: "openai", Type: "OPENAI"},
		},
	}
	assert.EqualError(t, cfg.Validate(), `default provider "missing" is not configured`)

	cfg.DefaultProvider = "openai"
	assert.NoError(t, cfg.Validate())

	cfg.Providers[0].BaseURL = "not a url"
	assert.Error(t, cfg.Validate())
}

func Test_CreateLLM(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")

	tcases := []struct {
		cfg      *llmfactory.ProviderConfig
		provider llms.ProviderType
		model    string
	}{
		{
			cfg:      &llmfactory.ProviderConfig{Name: "openai", Type: "OPENAI", Token: "fakekey", DefaultModel: "gpt-4o"},
			provider: llms.ProviderOpenAI,
			model:    "gpt-4o",
		},
		{
			cfg: &llmfactory.ProviderConfig{
				Name:         "azure",
				Type:         "azure",
				Token:        "fakekey",
				BaseURL:      "https://learn-agent.openai.azure.com",
				DefaultModel: "gpt-4o-deployment",
			},
			provider: llms.ProviderAzure,
			model:    "gpt-4o-deployment",
		},
		{
			cfg:      &llmfactory.ProviderConfig{Name: "anthropic", Type: "ANTHROPIC", Token: "fakekey", DefaultModel: "claude-sonnet-4-20250514"},
			provider: llms.ProviderAnthropic,
			model:    "claude-sonnet-4-20250514",
		},
		{
			cfg:      &llmfactory.ProviderConfig{Name: "gemini", Type: "GOOGLEAI", Token: "fakekey", DefaultModel: "gemini-2.5-pro"},
			provider: llms.ProviderGoogleAI,
			model:    "gemini-2.5-pro",
		},
	}
	for _, tc := range tcases {
		model, err := llmfactory.CreateLLM(tc.cfg)
		require.NoError(t, err, tc.cfg.Name)
		assert.Equal(t, tc.provider, model.GetProviderType(), tc.cfg.Name)
		assert.Equal(t, tc.model, model.GetName(), tc.cfg.Name)
	}

	_, err := llmfactory.CreateLLM(&llmfactory.ProviderConfig{Name: "bedrock", Type: "BEDROCK"})
	assert.EqualError(t, err, "unsupported provider type: BEDROCK")

	_, err = llmfactory.CreateLLM(&llmfactory.ProviderConfig{Name: "openai", Type: "OPENAI"})
	assert.Error(t, err)
}
