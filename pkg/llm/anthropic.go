package llm

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xhad/siteqa/internal/models"
)

const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

// AnthropicCompleter implements types.Completer with the Messages API.
type AnthropicCompleter struct {
	client sdk.Client
	config ChatConfig
}

func NewAnthropic(config ChatConfig, opts ...option.RequestOption) (*AnthropicCompleter, error) {
	if config.Model == "" {
		config.Model = DefaultAnthropicModel
	}
	if err := applyChatDefaults(&config); err != nil {
		return nil, err
	}
	if config.APIKey == "" {
		return nil, eris.New("llm: anthropic requires an api key")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(config.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &AnthropicCompleter{client: sdk.NewClient(reqOpts...), config: config}, nil
}

func (a *AnthropicCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(a.config.Model),
		MaxTokens:   int64(a.config.MaxTokens),
		System:      []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(userPrompt))},
		Temperature: sdk.Float(a.config.Temperature),
	})
	if err != nil {
		return "", models.Fail(models.ModelFailure, "complete", eris.Wrap(err, "anthropic: create message"))
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	logUsage(a.config.Model, msg.Usage.InputTokens, msg.Usage.OutputTokens, time.Since(start))
	return strings.TrimSpace(b.String()), nil
}

func logUsage(model string, inputTokens, outputTokens int64, elapsed time.Duration) {
	zap.L().Debug("llm: completion",
		zap.String("model", model),
		zap.Int64("input_tokens", inputTokens),
		zap.Int64("output_tokens", outputTokens),
		zap.Duration("elapsed", elapsed),
	)
}
