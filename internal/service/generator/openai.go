package generator

import (
	"context"

	"github.com/bytedance/gg/gptr"
	einoOpenAI "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/brightpath-edu/iepforge/internal/options"
)

type openaiProvider struct{}

func (openaiProvider) Name() string { return "openai" }

// BuildChatModel configures the OpenAI-compatible adapter for JSON-only
// responses (§4.6: "JSON-only response MIME").
func (openaiProvider) BuildChatModel(ctx context.Context, opts *options.LLMOptions) (model.BaseChatModel, error) {
	cfg := &einoOpenAI.ChatModelConfig{
		Model:       opts.ModelID,
		APIKey:      opts.APIKey,
		MaxTokens:   gptr.Of(opts.MaxOutputTokens),
		Temperature: float32ptr(opts.Temperature),
		ResponseFormat: &einoOpenAI.ChatCompletionResponseFormat{
			Type: einoOpenAI.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return einoOpenAI.NewChatModel(ctx, cfg)
}
