package generator

import (
	"context"

	einoClaude "github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/brightpath-edu/iepforge/internal/options"
)

type anthropicProvider struct{}

func (anthropicProvider) Name() string { return "anthropic" }

func (anthropicProvider) BuildChatModel(ctx context.Context, opts *options.LLMOptions) (model.BaseChatModel, error) {
	cfg := &einoClaude.Config{
		APIKey:      opts.APIKey,
		Model:       opts.ModelID,
		MaxTokens:   opts.MaxOutputTokens,
		Temperature: float32ptr(opts.Temperature),
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = &opts.BaseURL
	}
	return einoClaude.NewChatModel(ctx, cfg)
}

func float32ptr(f float64) *float32 {
	v := float32(f)
	return &v
}
