package config

import (
	"fmt"
	"net/url"
	"slices"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	chatProviders      = []string{"ollama", "openai", "anthropic"}
	embeddingProviders = []string{"ollama", "openai"}
	logLevels          = []string{"debug", "info", "warn", "error"}
)

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	add := func(field, message string) {
		errors = append(errors, ValidationError{Field: field, Message: message})
	}

	// LLM
	if !slices.Contains(chatProviders, c.LLM.Provider) {
		add("llm.provider", fmt.Sprintf("unsupported provider %q", c.LLM.Provider))
	}
	if c.LLM.Provider == "ollama" && c.LLM.BaseURL == "" {
		add("llm.base_url", "Ollama base URL is required")
	}
	if c.LLM.BaseURL != "" && !validHTTPURL(c.LLM.BaseURL) {
		add("llm.base_url", "invalid base URL")
	}
	if (c.LLM.Provider == "openai" || c.LLM.Provider == "anthropic") && c.LLM.APIKey == "" {
		add("llm.api_key", "api key is required for "+c.LLM.Provider)
	}
	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		add("llm.max_tokens", "max_tokens must be between 1 and 8192")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		add("llm.temperature", "temperature must be between 0 and 1")
	}
	if c.LLM.TimeoutSecs < 1 {
		add("llm.timeout_secs", "timeout_secs must be positive")
	}

	// Embedding
	if !slices.Contains(embeddingProviders, c.Embedding.Provider) {
		add("embedding.provider", fmt.Sprintf("unsupported provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		add("embedding.api_key", "api key is required for openai")
	}
	if c.Embedding.Dimensions < 1 {
		add("embedding.dimensions", "dimensions must be positive")
	}

	// Database
	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			add("database.url", "invalid database URL")
		}
	}
	if c.Database.EfSearch < 1 || c.Database.EfSearch > 1000 {
		add("database.ef_search", "ef_search must be between 1 and 1000")
	}

	// Scraper
	if c.Scraper.PageLimit < 1 {
		add("scraper.page_limit", "page_limit must be positive")
	}
	if c.Scraper.RateLimit == 0 {
		add("scraper.rate_limit", "rate_limit must be non-zero")
	}
	if c.Scraper.TimeoutSecs < 1 {
		add("scraper.timeout_secs", "timeout_secs must be positive")
	}

	// Processor
	if c.Processor.ChunkSize < 1 {
		add("processor.chunk_size", "chunk_size must be positive")
	}
	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		add("processor.chunk_overlap", "chunk_overlap must be non-negative and less than chunk_size")
	}

	// Menu
	if c.Menu.MaxCandidates < 1 {
		add("menu.max_candidates", "max_candidates must be positive")
	}
	if c.Menu.Concurrency < 1 {
		add("menu.concurrency", "concurrency must be positive")
	}

	// QA
	if c.QA.SearchLimit < 1 {
		add("qa.search_limit", "search_limit must be positive")
	}
	if c.QA.FallbackPages < 1 {
		add("qa.fallback_pages", "fallback_pages must be positive")
	}
	if c.QA.MaxContextChars < 1 {
		add("qa.max_context_chars", "max_context_chars must be positive")
	}

	// Log
	if !slices.Contains(logLevels, c.Log.Level) {
		add("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		add("log.format", "format must be json or console")
	}

	return errors
}

func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
