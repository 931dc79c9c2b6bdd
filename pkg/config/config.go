package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	// Provider is one of ollama, openai or anthropic.
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
}

type DatabaseConfig struct {
	// URL selects the Postgres store. Empty means the in-memory store.
	URL         string `yaml:"url"`
	SearchLimit int    `yaml:"search_limit"`
	EfSearch    int    `yaml:"ef_search"`
}

type ScraperConfig struct {
	PageLimit      int      `yaml:"page_limit"`
	RateLimit      float64  `yaml:"rate_limit"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
	IgnoreRobots   bool     `yaml:"ignore_robots"`
	UserAgent      string   `yaml:"user_agent"`
	TimeoutSecs    int      `yaml:"timeout_secs"`
	MaxBytes       int64    `yaml:"max_bytes"`
}

type ProcessorConfig struct {
	ChunkSize      int  `yaml:"chunk_size"`
	ChunkOverlap   int  `yaml:"chunk_overlap"`
	SkipDuplicates bool `yaml:"skip_duplicates"`
}

type MenuConfig struct {
	MaxCandidates    int    `yaml:"max_candidates"`
	Concurrency      int    `yaml:"concurrency"`
	ParseTimeoutSecs int    `yaml:"parse_timeout_secs"`
	AssetTimeoutSecs int    `yaml:"asset_timeout_secs"`
	PdfToTextPath    string `yaml:"pdftotext_path"`
	TesseractPath    string `yaml:"tesseract_path"`
	OCRLang          string `yaml:"ocr_lang"`
}

type QAConfig struct {
	SearchLimit     int `yaml:"search_limit"`
	FallbackPages   int `yaml:"fallback_pages"`
	MaxContextChars int `yaml:"max_context_chars"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Processor ProcessorConfig `yaml:"processor"`
	Menu      MenuConfig      `yaml:"menu"`
	QA        QAConfig        `yaml:"qa"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// DefaultLocations are searched in order when no path is given.
func DefaultLocations() []string {
	return []string{
		"config.yaml",
		"config.yml",
		filepath.Join(os.Getenv("HOME"), ".config/siteqa/config.yaml"),
		"/etc/siteqa/config.yaml",
	}
}

// LoadConfig reads path (or the first existing default location), applies
// .env and environment overrides, then fills defaults.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if path == "" {
		for _, loc := range DefaultLocations() {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() *Config {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.2
	}
	if config.LLM.TimeoutSecs == 0 {
		config.LLM.TimeoutSecs = 60
	}

	if config.Embedding.Provider == "" {
		if config.LLM.Provider == "openai" {
			config.Embedding.Provider = "openai"
		} else {
			config.Embedding.Provider = "ollama"
		}
	}
	if config.Embedding.BaseURL == "" && config.Embedding.Provider == "ollama" {
		if config.LLM.Provider == "ollama" {
			config.Embedding.BaseURL = config.LLM.BaseURL
		} else {
			config.Embedding.BaseURL = "http://localhost:11434"
		}
	}
	if config.Embedding.APIKey == "" && config.Embedding.Provider == config.LLM.Provider {
		config.Embedding.APIKey = config.LLM.APIKey
	}
	if config.Embedding.Dimensions == 0 {
		if config.Embedding.Provider == "openai" {
			config.Embedding.Dimensions = 1536
		} else {
			config.Embedding.Dimensions = 768
		}
	}

	if config.Database.SearchLimit == 0 {
		config.Database.SearchLimit = 3
	}
	if config.Database.EfSearch == 0 {
		config.Database.EfSearch = 100
	}

	if config.Scraper.PageLimit == 0 {
		config.Scraper.PageLimit = 10
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.TimeoutSecs == 0 {
		config.Scraper.TimeoutSecs = 15
	}
	if config.Scraper.MaxBytes == 0 {
		config.Scraper.MaxBytes = 10 << 20
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1500
	}

	if config.Menu.MaxCandidates == 0 {
		config.Menu.MaxCandidates = 6
	}
	if config.Menu.Concurrency == 0 {
		config.Menu.Concurrency = 3
	}
	if config.Menu.ParseTimeoutSecs == 0 {
		config.Menu.ParseTimeoutSecs = 60
	}
	if config.Menu.AssetTimeoutSecs == 0 {
		config.Menu.AssetTimeoutSecs = 20
	}
	if config.Menu.PdfToTextPath == "" {
		config.Menu.PdfToTextPath = "pdftotext"
	}
	if config.Menu.TesseractPath == "" {
		config.Menu.TesseractPath = "tesseract"
	}

	if config.QA.SearchLimit == 0 {
		config.QA.SearchLimit = 3
	}
	if config.QA.FallbackPages == 0 {
		config.QA.FallbackPages = 5
	}
	if config.QA.MaxContextChars == 0 {
		config.QA.MaxContextChars = 12000
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "json"
	}
}

func mergeWithEnv(config *Config) {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if dbURL := os.Getenv("SITEQA_DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		if config.LLM.Provider == "" || config.LLM.Provider == "ollama" {
			config.LLM.BaseURL = baseURL
		}
		if config.Embedding.Provider == "" || config.Embedding.Provider == "ollama" {
			config.Embedding.BaseURL = baseURL
		}
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if config.LLM.Provider == "openai" && config.LLM.APIKey == "" {
			config.LLM.APIKey = key
		}
		if config.Embedding.Provider == "openai" && config.Embedding.APIKey == "" {
			config.Embedding.APIKey = key
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.LLM.Provider == "anthropic" && config.LLM.APIKey == "" {
		config.LLM.APIKey = key
	}
	if level := os.Getenv("SITEQA_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}
