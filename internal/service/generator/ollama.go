package generator

import (
	"context"

	einoOllama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/brightpath-edu/iepforge/internal/options"
)

type ollamaProvider struct{}

func (ollamaProvider) Name() string { return "ollama" }

func (ollamaProvider) BuildChatModel(ctx context.Context, opts *options.LLMOptions) (model.BaseChatModel, error) {
	cfg := &einoOllama.ChatModelConfig{
		BaseURL: "http://127.0.0.1:11434",
		Model:   opts.ModelID,
		Options: &einoOllama.Options{
			Temperature: float32(opts.Temperature),
		},
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return einoOllama.NewChatModel(ctx, cfg)
}
