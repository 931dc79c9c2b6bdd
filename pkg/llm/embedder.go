package llm

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/xhad/siteqa/internal/models"
)

type EmbedderConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	// Dimensions is the vector length the store column is created with.
	Dimensions int
}

// Embedder produces one vector per text. It implements types.Embedder.
type Embedder struct {
	config EmbedderConfig
	client embeddings.EmbedderClient
}

func applyEmbedderDefaults(config *EmbedderConfig) {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}
	if config.Model == "" {
		if config.Provider == ProviderOpenAI {
			config.Model = "text-embedding-3-small"
		} else {
			config.Model = "nomic-embed-text:latest"
		}
	}
	if config.Dimensions <= 0 {
		if config.Provider == ProviderOpenAI {
			config.Dimensions = 1536
		} else {
			config.Dimensions = 768
		}
	}
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	applyEmbedderDefaults(&config)

	var (
		client embeddings.EmbedderClient
		err    error
	)
	switch config.Provider {
	case ProviderOllama:
		if config.BaseURL == "" {
			config.BaseURL = DefaultOllamaURL
		}
		client, err = ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithEmbeddingModel(config.Model), openai.WithToken(config.APIKey)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		client, err = openai.New(opts...)
	default:
		return nil, eris.Errorf("llm: unsupported embedding provider %q", config.Provider)
	}
	if err != nil {
		return nil, eris.Wrap(err, "llm: initialize embedder")
	}
	return &Embedder{config: config, client: client}, nil
}

// NewEmbedder wraps an existing langchaingo embedding client.
func NewEmbedder(client embeddings.EmbedderClient, config EmbedderConfig) *Embedder {
	applyEmbedderDefaults(&config)
	return &Embedder{config: config, client: client}
}

func (e *Embedder) Dimensions() int { return e.config.Dimensions }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.client.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, models.Fail(models.ModelFailure, "embed", eris.Wrap(err, "llm: create embedding"))
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, models.Fail(models.ModelFailure, "embed", eris.New("llm: empty embedding"))
	}
	return vecs[0], nil
}
