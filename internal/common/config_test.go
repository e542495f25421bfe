package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketdigest.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig_Valid(t *testing.T) {
	config := NewDefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "US financial markets news last 24 hours", config.Search.Query)
	assert.Equal(t, 5, config.Search.MaxResults)
	assert.Equal(t, 500, config.Summary.WordLimit)
	assert.Equal(t, 30*time.Second, config.Telegram.GetTimeout())
	assert.Equal(t, EnrichmentBackendImage, config.Enrichment.Backend)
}

func TestLoadFromFiles_MergesInOrder(t *testing.T) {
	first := writeConfig(t, `
[search]
max_results = 8

[enrichment]
backend = "chart"
`)
	second := writeConfig(t, `
[search]
query = "European markets"
`)

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)

	assert.Equal(t, 8, config.Search.MaxResults)
	assert.Equal(t, "European markets", config.Search.Query)
	assert.Equal(t, EnrichmentBackendChart, config.Enrichment.Backend)
	assert.Equal(t, "basic", config.Search.SearchDepth)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "[search\nquery ="))
	assert.Error(t, err)
}

func TestEnvOverrides_PrefixWins(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "plain")
	t.Setenv("MARKETDIGEST_TAVILY_API_KEY", "prefixed")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("MARKETDIGEST_LLM_DEFAULT_PROVIDER", "claude")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "prefixed", config.Search.APIKey)
	assert.Equal(t, "anthropic", config.Claude.APIKey)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.True(t, config.Telegram.Configured())
}

func TestEnvOverrides_Schedule(t *testing.T) {
	t.Setenv("MARKETDIGEST_SCHEDULE_ENABLED", "true")
	t.Setenv("MARKETDIGEST_SCHEDULE_CRON", "30 6 * * 1-5")
	t.Setenv("MARKETDIGEST_SCHEDULE_RUN_ON_START", "true")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.True(t, config.Schedule.Enabled)
	assert.Equal(t, "30 6 * * 1-5", config.Schedule.Cron)
	assert.True(t, config.Schedule.RunOnStart)
	require.NoError(t, config.Validate())
}

func TestValidateCredentials(t *testing.T) {
	config := NewDefaultConfig()
	assert.ErrorContains(t, config.ValidateCredentials(), "TAVILY_API_KEY")

	config.Search.APIKey = "tvly"
	assert.ErrorContains(t, config.ValidateCredentials(), "GEMINI_API_KEY")

	config.Gemini.APIKey = "g"
	assert.NoError(t, config.ValidateCredentials())

	config.LLM.DefaultProvider = LLMProviderClaude
	assert.ErrorContains(t, config.ValidateCredentials(), "ANTHROPIC_API_KEY")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.DefaultProvider = "openai" }},
		{"unknown backend", func(c *Config) { c.Enrichment.Backend = "video" }},
		{"zero word limit", func(c *Config) { c.Summary.WordLimit = 0 }},
		{"too many results", func(c *Config) { c.Search.MaxResults = 50 }},
		{"bad schedule", func(c *Config) { c.Schedule.Enabled = true; c.Schedule.Cron = "* * * * *" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestApplyFlagOverrides_OnceDisablesSchedule(t *testing.T) {
	config := NewDefaultConfig()
	config.Schedule.Enabled = true

	ApplyFlagOverrides(config, true)
	assert.False(t, config.Schedule.Enabled)
}
