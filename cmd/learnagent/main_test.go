package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/effective-security/learnagent/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAzureEnv(t *testing.T, apiKey string) {
	t.Setenv(config.EnvAzureOpenAIEndpoint, "https://learn.openai.azure.com/")
	t.Setenv(config.EnvAzureOpenAIDeployment, "gpt-4o-mini")
	t.Setenv(config.EnvAzureOpenAIAPIVersion, "")
	t.Setenv(config.EnvAzureOpenAIAPIKey, apiKey)
	t.Setenv(config.EnvPort, "")
}

func TestRun_PrintConfig(t *testing.T) {
	setAzureEnv(t, "secret-key")

	var out bytes.Buffer
	err := run(context.Background(), []string{"--print-config", "--env-dir", t.TempDir()}, &out)
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "port: 3978")
	assert.Contains(t, s, "azure-openai")
	assert.Contains(t, s, "https://learn.microsoft.com/api/mcp")
	assert.Contains(t, s, "token: '***'")
	assert.NotContains(t, s, "secret-key")
}

func TestRun_PrintConfig_DotEnv(t *testing.T) {
	setAzureEnv(t, "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.user"), []byte("PORT=4100\n"), 0o600))

	var out bytes.Buffer
	err := run(context.Background(), []string{"--print-config", "--env-dir", dir}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "port: 4100")
	assert.Contains(t, out.String(), "type: AZURE_AD")
}

func TestRun_Errors(t *testing.T) {
	setAzureEnv(t, "")

	var out bytes.Buffer
	err := run(context.Background(), []string{"--unknown"}, &out)
	require.Error(t, err)

	err = run(context.Background(), []string{"--cfg", "testdata/missing.yaml", "--env-dir", t.TempDir()}, &out)
	require.Error(t, err)

	t.Setenv(config.EnvAzureOpenAIEndpoint, "")
	err = run(context.Background(), []string{"--print-config", "--env-dir", t.TempDir()}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint is required")
}
