package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "SITEQA_DATABASE_URL", "OLLAMA_BASE_URL",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "SITEQA_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfig(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "openai"
  model: "gpt-4o-mini"
  api_key: "sk-test"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/siteqa"

scraper:
  page_limit: 25
  rate_limit: 1.5
  ignore_patterns:
    - "/wp-admin/"

processor:
  chunk_size: 800
  skip_duplicates: true

menu:
  ocr_lang: "deu"

qa:
  fallback_pages: 3

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "openai", config.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", config.LLM.Model)
	assert.Empty(t, config.LLM.BaseURL)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "openai", config.Embedding.Provider)
	assert.Equal(t, "sk-test", config.Embedding.APIKey)
	assert.Equal(t, 1536, config.Embedding.Dimensions)
	assert.Equal(t, "postgres://localhost:5432/siteqa", config.Database.URL)
	assert.Equal(t, 25, config.Scraper.PageLimit)
	assert.Equal(t, []string{"/wp-admin/"}, config.Scraper.IgnorePatterns)
	assert.Equal(t, 800, config.Processor.ChunkSize)
	assert.True(t, config.Processor.SkipDuplicates)
	assert.Equal(t, "deu", config.Menu.OCRLang)
	assert.Equal(t, 3, config.QA.FallbackPages)
	assert.Equal(t, 12000, config.QA.MaxContextChars)
	assert.Equal(t, "console", config.Log.Format)
	assert.Empty(t, config.Validate())
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "http://localhost:11434", config.Embedding.BaseURL)
	assert.Equal(t, 768, config.Embedding.Dimensions)
	assert.Equal(t, 10, config.Scraper.PageLimit)
	assert.Equal(t, 1500, config.Processor.ChunkSize)
	assert.False(t, config.Processor.SkipDuplicates)
	assert.Equal(t, 6, config.Menu.MaxCandidates)
	assert.Equal(t, 5, config.QA.FallbackPages)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Empty(t, config.Database.URL)
	assert.Equal(t, 100, config.Database.EfSearch)
	assert.Empty(t, config.Validate())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://fallback/db")
	t.Setenv("SITEQA_DATABASE_URL", "postgres://primary/db")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("SITEQA_LOG_LEVEL", "warn")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://primary/db", config.Database.URL)
	assert.Equal(t, "http://ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "http://ollama:11434", config.Embedding.BaseURL)
	assert.Equal(t, "warn", config.Log.Level)
}

func TestDotEnvIsLoaded(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SITEQA_DATABASE_URL=postgres://dotenv/db\n"), 0644))
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv("SITEQA_DATABASE_URL"))

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv/db", config.Database.URL)
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("llm: [unclosed"), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		c := Config{}
		applyDefaults(&c)
		return c
	}

	tests := []struct {
		name          string
		mutate        func(c *Config)
		errorMessages []string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name: "invalid llm",
			mutate: func(c *Config) {
				c.LLM.BaseURL = "invalid-url"
				c.LLM.MaxTokens = 10000
				c.LLM.Temperature = 3.0
			},
			errorMessages: []string{
				"llm.base_url: invalid base URL",
				"llm.max_tokens: max_tokens must be between 1 and 8192",
				"llm.temperature: temperature must be between 0 and 1",
			},
		},
		{
			name: "hosted provider without key",
			mutate: func(c *Config) {
				c.LLM.Provider = "anthropic"
			},
			errorMessages: []string{"llm.api_key: api key is required for anthropic"},
		},
		{
			name: "bad database and chunking",
			mutate: func(c *Config) {
				c.Database.URL = "mysql://localhost/db"
				c.Database.EfSearch = 5000
				c.Processor.ChunkOverlap = c.Processor.ChunkSize
			},
			errorMessages: []string{
				"database.url: invalid database URL",
				"database.ef_search: ef_search must be between 1 and 1000",
				"processor.chunk_overlap: chunk_overlap must be non-negative and less than chunk_size",
			},
		},
		{
			name: "bad log settings",
			mutate: func(c *Config) {
				c.Log.Level = "loud"
				c.Log.Format = "xml"
			},
			errorMessages: []string{
				`log.level: unknown level "loud"`,
				"log.format: format must be json or console",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)

			errs := config.Validate()
			var messages []string
			for _, err := range errs {
				messages = append(messages, err.Error())
			}
			assert.ElementsMatch(t, tt.errorMessages, messages)
		})
	}
}

func TestInitLogger(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud"}))
}
