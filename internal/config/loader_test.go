package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
llm:
  default_provider: ${TEST_LLM_PROVIDER:claude}
  providers:
    claude:
      type: claude
      api_key: ${TEST_ANTHROPIC_KEY:}
      model: claude-3-5-sonnet-20241022
    mock:
      type: mock
      model: mock-writer
  draft:
    max_tokens: 6000
  style:
    max_tokens: 4000
    temperature: 0.3
ledger:
  backend: memory
`

func writeConfig(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	dir := writeConfig(t, map[string]string{"config.yaml": baseYAML})

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.DefaultProvider)
	assert.Equal(t, int64(300000), cfg.Quota.MonthlyTokenLimit)
	assert.Equal(t, "Asia/Tokyo", cfg.Quota.Timezone)
	assert.Equal(t, 6000, cfg.LLM.Draft.MaxTokens)
	assert.Equal(t, 0.3, cfg.LLM.Style.Temperature)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLM.ModelFor(cfg.LLM.Draft))
	assert.Equal(t, []string{"claude"}, cfg.MissingAPIKeys())
}

func TestLoadFromMergesEnvironmentFile(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	dir := writeConfig(t, map[string]string{
		"config.yaml":      baseYAML,
		"config.unit.yaml": "llm:\n  default_provider: mock\n",
	})

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.DefaultProvider)
	assert.Empty(t, cfg.MissingAPIKeys())
}

func TestLoadFromExpandsPlaceholders(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-test")
	dir := writeConfig(t, map[string]string{"config.yaml": baseYAML})

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.Providers["claude"].APIKey)
	assert.Empty(t, cfg.MissingAPIKeys())
}

func TestLoadFromRejectsUnknownStageProvider(t *testing.T) {
	t.Setenv("APP_ENV", "unit")
	t.Setenv("TEST_LLM_PROVIDER", "gemini")
	dir := writeConfig(t, map[string]string{"config.yaml": baseYAML})

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `provider "gemini" is not configured`)
}

func TestExpandEnvKeepsUnknownPlaceholder(t *testing.T) {
	assert.Equal(t, "${NOT_SET_ANYWHERE_42}", expandEnv("${NOT_SET_ANYWHERE_42}"))
	assert.Equal(t, "fallback", expandEnv("${NOT_SET_ANYWHERE_42:fallback}"))
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := &Config{
		Quota:  QuotaConfig{MonthlyTokenLimit: 0, Timezone: "Mars/Olympus"},
		Ledger: LedgerConfig{Backend: "sheets"},
		LLM: LLMConfig{
			DefaultProvider: "x",
			Providers:       map[string]ProviderConfig{"x": {Type: "bard"}},
			Draft:           StageConfig{MaxTokens: 10},
			Style:           StageConfig{MaxTokens: 10},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "monthly_token_limit")
	assert.Contains(t, msg, "Mars/Olympus")
	assert.Contains(t, msg, `ledger.backend "sheets"`)
	assert.Contains(t, msg, `unsupported type "bard"`)
}
