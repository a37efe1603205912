// Package llm exposes chat generation and text embedding behind small
// provider-agnostic interfaces. Assistants choose their provider and model
// per row; unset values fall back to the configured defaults.
package llm

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/octadion/rag/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	providerGoogle = "google" // accepted alias for gemini
)

// Generator produces one completion for a fully-rendered prompt.
// Implementations request deterministic output (temperature 0).
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Factory builds generators and embedders on demand and caches the
// underlying provider clients.
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger

	mu     sync.Mutex
	openai *openAIClient
	gemini *geminiClient
}

func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// Generator returns a chat generator for the given provider and model.
// Empty values fall back to the configured defaults.
func (f *Factory) Generator(provider, model string) (Generator, error) {
	provider = f.resolveProvider(provider, f.cfg.Defaults.LLMProvider)
	switch provider {
	case ProviderOpenAI:
		client, err := f.openAI()
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = f.cfg.OpenAI.Model
		}
		return &openAIGenerator{client: client, model: model}, nil
	case ProviderGemini:
		client, err := f.geminiClient()
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = f.cfg.Gemini.Model
		}
		return &geminiGenerator{client: client, model: model}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// Embedder returns an embedder for the given provider and model. Empty
// values fall back to the configured defaults.
func (f *Factory) Embedder(provider, model string) (Embedder, error) {
	provider = f.resolveProvider(provider, f.cfg.Defaults.EmbeddingProvider)
	switch provider {
	case ProviderOpenAI:
		client, err := f.openAI()
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = f.cfg.OpenAI.EmbeddingModel
		}
		return &openAIEmbedder{client: client, model: model}, nil
	case ProviderGemini:
		client, err := f.geminiClient()
		if err != nil {
			return nil, err
		}
		if model == "" {
			model = f.cfg.Gemini.EmbeddingModel
		}
		return &geminiEmbedder{client: client, model: model}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

func (f *Factory) resolveProvider(provider, fallback string) string {
	if provider == "" {
		provider = fallback
	}
	if provider == providerGoogle {
		provider = ProviderGemini
	}
	return provider
}
