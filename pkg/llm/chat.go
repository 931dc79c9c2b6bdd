package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/xhad/siteqa/internal/models"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	DefaultOllamaURL = "http://localhost:11434"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider    string
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
}

// ChatEngine answers prompts with a langchaingo model. It implements
// types.Completer.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

func applyChatDefaults(config *ChatConfig) error {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return eris.New("llm: temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return eris.New("llm: max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return nil
}

// NewWithConfig creates a ChatEngine backed by Ollama or OpenAI.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}

	var (
		model llms.Model
		err   error
	)
	switch config.Provider {
	case ProviderOllama:
		if config.BaseURL == "" {
			config.BaseURL = DefaultOllamaURL
		}
		model, err = ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(config.Model), openai.WithToken(config.APIKey)}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err = openai.New(opts...)
	default:
		return nil, eris.Errorf("llm: unsupported chat provider %q", config.Provider)
	}
	if err != nil {
		return nil, eris.Wrap(err, "llm: initialize chat model")
	}

	return &ChatEngine{config: config, llm: model}, nil
}

// NewChatEngine wraps an existing langchaingo model.
func NewChatEngine(model llms.Model, config ChatConfig) (*ChatEngine, error) {
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}
	return &ChatEngine{config: config, llm: model}, nil
}

// Complete sends a system and user prompt and returns the trimmed answer.
func (ce *ChatEngine) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return ce.generate(ctx, systemPrompt, userPrompt)
}

// Stream is Complete with each generated chunk passed to onChunk as it
// arrives.
func (ce *ChatEngine) Stream(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error) {
	return ce.generate(ctx, systemPrompt, userPrompt, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		onChunk(string(chunk))
		return nil
	}))
}

func (ce *ChatEngine) generate(ctx context.Context, systemPrompt, userPrompt string, extra ...llms.CallOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ce.config.Timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	opts := append([]llms.CallOption{
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	}, extra...)

	resp, err := ce.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", models.Fail(models.ModelFailure, "complete", eris.Wrap(err, "llm: generate content"))
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", models.Fail(models.ModelFailure, "complete", eris.New("llm: no response from model"))
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
