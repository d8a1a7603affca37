package generator

import (
	"context"
	"fmt"

	einoGemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/brightpath-edu/iepforge/internal/options"
)

type geminiProvider struct{}

func (geminiProvider) Name() string { return "gemini" }

func (geminiProvider) BuildChatModel(ctx context.Context, opts *options.LLMOptions) (model.BaseChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("generator: create gemini client: %w", err)
	}

	temp := float32(opts.Temperature)
	maxTokens := opts.MaxOutputTokens
	cfg := &einoGemini.Config{
		Client:      client,
		Model:       opts.ModelID,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}
	return einoGemini.NewChatModel(ctx, cfg)
}
