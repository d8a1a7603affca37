package vectorindex

import (
	"context"
	"fmt"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	openaiembedding "github.com/cloudwego/eino-ext/components/embedding/openai"
	geminiembedding "github.com/cloudwego/eino-ext/components/embedding/gemini"
	ollamaembedding "github.com/cloudwego/eino-ext/components/embedding/ollama"

	"github.com/brightpath-edu/iepforge/internal/options"
)

// EmbeddingProvider embeds text into vectors, grounded on the teacher's
// memory-core/embedding.Provider shape but backed by eino's embedding
// component interface instead of hand-rolled HTTP.
type EmbeddingProvider interface {
	ID() string
	Model() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type einoProvider struct {
	id       string
	model    string
	embedder einoembedding.Embedder
}

func (p *einoProvider) ID() string    { return p.id }
func (p *einoProvider) Model() string { return p.model }

func (p *einoProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("vectorindex: empty embedding response from %s", p.id)
	}
	return out[0], nil
}

func (p *einoProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: %s embed: %w", p.id, err)
	}
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		row := make([]float32, len(v))
		for j, f := range v {
			row[j] = float32(f)
		}
		out[i] = row
	}
	return out, nil
}

// NewEmbeddingProvider selects and constructs one of the eino-ext embedding
// adapters per options.VectorOptions.EmbeddingProvider (§4.3/§6).
func NewEmbeddingProvider(ctx context.Context, opts *options.VectorOptions) (EmbeddingProvider, error) {
	switch opts.EmbeddingProvider {
	case "openai":
		embedder, err := openaiembedding.NewEmbedder(ctx, &openaiembedding.EmbeddingConfig{
			APIKey:  opts.EmbeddingAPIKey,
			BaseURL: opts.EmbeddingBaseURL,
			Model:   opts.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("vectorindex: build openai embedder: %w", err)
		}
		return &einoProvider{id: "openai", model: opts.EmbeddingModel, embedder: embedder}, nil
	case "gemini":
		embedder, err := geminiembedding.NewEmbedder(ctx, &geminiembedding.EmbeddingConfig{
			APIKey: opts.EmbeddingAPIKey,
			Model:  opts.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("vectorindex: build gemini embedder: %w", err)
		}
		return &einoProvider{id: "gemini", model: opts.EmbeddingModel, embedder: embedder}, nil
	case "ollama":
		baseURL := opts.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		embedder, err := ollamaembedding.NewEmbedder(ctx, &ollamaembedding.EmbeddingConfig{
			BaseURL: baseURL,
			Model:   opts.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("vectorindex: build ollama embedder: %w", err)
		}
		return &einoProvider{id: "ollama", model: opts.EmbeddingModel, embedder: embedder}, nil
	default:
		return nil, fmt.Errorf("vectorindex: unknown embedding provider %q", opts.EmbeddingProvider)
	}
}
