package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// VectorOptions configures the Vector Index (§4.3, §6).
type VectorOptions struct {
	StorePath         string `json:"store-path" mapstructure:"store-path"`
	TopK              int    `json:"top-k" mapstructure:"top-k"`
	EmbeddingDim      int    `json:"embedding-dim" mapstructure:"embedding-dim"`
	ChunkChars        int    `json:"chunk-chars" mapstructure:"chunk-chars"`
	ChunkOverlapChars int    `json:"chunk-overlap-chars" mapstructure:"chunk-overlap-chars"`
	EmbeddingProvider string `json:"embedding-provider" mapstructure:"embedding-provider"`
	EmbeddingModel    string `json:"embedding-model" mapstructure:"embedding-model"`
	EmbeddingAPIKey   string `json:"embedding-api-key" mapstructure:"embedding-api-key"`
	EmbeddingBaseURL  string `json:"embedding-base-url" mapstructure:"embedding-base-url"`
}

func NewVectorOptions() *VectorOptions {
	return &VectorOptions{
		StorePath:         "data/vector-index.db",
		TopK:              3,
		EmbeddingDim:      768,
		ChunkChars:        1000,
		ChunkOverlapChars: 200,
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
	}
}

func (o *VectorOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.StorePath, "vector.store-path", o.StorePath, "SQLite file backing the vector/chunk index.")
	fs.IntVar(&o.TopK, "vector.top-k", o.TopK, "Exemplars retrieved per section (§4.5).")
	fs.IntVar(&o.EmbeddingDim, "vector.embedding-dim", o.EmbeddingDim, "Embedding vector dimension (reference: 768).")
	fs.IntVar(&o.ChunkChars, "vector.chunk-chars", o.ChunkChars, "Chunk window size in characters (~1000, §4.3).")
	fs.IntVar(&o.ChunkOverlapChars, "vector.chunk-overlap-chars", o.ChunkOverlapChars, "Chunk window overlap in characters (~200, §4.3).")
	fs.StringVar(&o.EmbeddingProvider, "vector.embedding-provider", o.EmbeddingProvider, "Embedding backend: openai, gemini, or ollama.")
	fs.StringVar(&o.EmbeddingModel, "vector.embedding-model", o.EmbeddingModel, "Embedding model name.")
	fs.StringVar(&o.EmbeddingAPIKey, "vector.embedding-api-key", o.EmbeddingAPIKey, "API key for the embedding backend.")
	fs.StringVar(&o.EmbeddingBaseURL, "vector.embedding-base-url", o.EmbeddingBaseURL, "Override base URL for the embedding backend (e.g. a local Ollama host).")
}

func (o *VectorOptions) Validate() []error {
	var errs []error
	if o.TopK < 1 {
		errs = append(errs, fmt.Errorf("vector.top-k must be >= 1"))
	}
	if o.EmbeddingDim < 1 {
		errs = append(errs, fmt.Errorf("vector.embedding-dim must be >= 1"))
	}
	if o.ChunkOverlapChars >= o.ChunkChars {
		errs = append(errs, fmt.Errorf("vector.chunk-overlap-chars must be < vector.chunk-chars"))
	}
	switch o.EmbeddingProvider {
	case "openai", "gemini", "ollama":
	default:
		errs = append(errs, fmt.Errorf("vector.embedding-provider must be one of openai, gemini, ollama"))
	}
	return errs
}
