package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// LLMOptions configures the LLM Generator (§4.6, §6).
type LLMOptions struct {
	Provider              string  `json:"provider" mapstructure:"provider"`
	ModelID               string  `json:"model-id" mapstructure:"model-id"`
	APIKey                string  `json:"api-key" mapstructure:"api-key"`
	BaseURL               string  `json:"base-url" mapstructure:"base-url"`
	Temperature           float64 `json:"temperature" mapstructure:"temperature"`
	MaxOutputTokens       int     `json:"max-output-tokens" mapstructure:"max-output-tokens"`
	MaxSectionParallelism int     `json:"max-section-parallelism" mapstructure:"max-section-parallelism"`
}

func NewLLMOptions() *LLMOptions {
	return &LLMOptions{
		Provider:              "anthropic",
		ModelID:               "claude-3-5-sonnet",
		Temperature:           0.5,
		MaxOutputTokens:       8192,
		MaxSectionParallelism: 1,
	}
}

func (o *LLMOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Provider, "llm.provider", o.Provider, "LLM vendor plugin: anthropic|openai|gemini|ollama.")
	fs.StringVar(&o.ModelID, "llm.model-id", o.ModelID, "Model identifier to request from the provider.")
	fs.StringVar(&o.APIKey, "llm.api-key", o.APIKey, "API key for the selected provider (prefer env/secret store in production).")
	fs.StringVar(&o.BaseURL, "llm.base-url", o.BaseURL, "Override base URL, mainly for the ollama/self-hosted provider.")
	fs.Float64Var(&o.Temperature, "llm.temperature", o.Temperature, "Sampling temperature (0.4-0.7 recommended, §4.6).")
	fs.IntVar(&o.MaxOutputTokens, "llm.max-output-tokens", o.MaxOutputTokens, "Max output tokens per section (>=8000 recommended).")
	fs.IntVar(&o.MaxSectionParallelism, "llm.max-section-parallelism", o.MaxSectionParallelism, "Bounded fan-out across sections of one IEP (<=4, default 1 = sequential).")
}

func (o *LLMOptions) Validate() []error {
	var errs []error
	switch o.Provider {
	case "anthropic", "openai", "gemini", "ollama":
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not a recognized vendor plugin", o.Provider))
	}
	if o.ModelID == "" {
		errs = append(errs, fmt.Errorf("llm.model-id is required"))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %v out of range [0,2]", o.Temperature))
	}
	if o.MaxOutputTokens < 1 {
		errs = append(errs, fmt.Errorf("llm.max-output-tokens must be > 0"))
	}
	if o.MaxSectionParallelism < 1 || o.MaxSectionParallelism > 4 {
		errs = append(errs, fmt.Errorf("llm.max-section-parallelism %d out of [1,4] (§4.6 bounded fan-out)", o.MaxSectionParallelism))
	}
	return errs
}
