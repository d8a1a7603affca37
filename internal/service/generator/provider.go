// Package generator implements the LLM Generator (§4.6): invokes the LLM
// once per template section, validates and repairs its JSON response, and
// retries per the bounded retry policy. Grounded on the teacher's
// service/llm/provider/{spi,registry,anthropic,openai,gemini,ollama}
// package family, simplified from a multi-model provider/instance registry
// down to a single configured model per process (§6: llm.provider,
// llm.model-id are process-wide configuration, not a runtime catalog).
package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"

	"github.com/brightpath-edu/iepforge/internal/options"
)

// Provider builds an Eino BaseChatModel for one vendor, grounded on the
// teacher's spi.ChatModelPlugin (BuildChatModel), narrowed to this
// repository's single-model-per-process configuration.
type Provider interface {
	Name() string
	BuildChatModel(ctx context.Context, opts *options.LLMOptions) (model.BaseChatModel, error)
}

// ProviderFactory constructs a Provider, mirroring the teacher's
// spi.PluginFactory.
type ProviderFactory func() Provider

// Registry is a thread-safe provider factory registry, grounded on the
// teacher's provider/registry.go.
type Registry struct {
	mu       sync.RWMutex
	registry map[string]ProviderFactory
}

// NewRegistry returns a Registry pre-populated with the four built-in
// vendor plugins (§6: llm.provider anthropic|openai|gemini|ollama).
func NewRegistry() *Registry {
	r := &Registry{registry: make(map[string]ProviderFactory)}
	r.MustRegister("anthropic", func() Provider { return anthropicProvider{} })
	r.MustRegister("openai", func() Provider { return openaiProvider{} })
	r.MustRegister("gemini", func() Provider { return geminiProvider{} })
	r.MustRegister("ollama", func() Provider { return ollamaProvider{} })
	return r
}

// Register adds a provider factory. Returns an error if name is taken.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.registry[name]; ok {
		return fmt.Errorf("generator: provider %q is already registered", name)
	}
	r.registry[name] = factory
	return nil
}

// MustRegister panics on a duplicate name; used for the built-in plugins.
func (r *Registry) MustRegister(name string, factory ProviderFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (ProviderFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("generator: provider %q is not registered", name)
	}
	return factory, nil
}
