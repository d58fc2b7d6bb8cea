package embedding

import (
	"context"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/model"
)

// Provider names as they appear in EmbeddingTarget.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Provider produces vectors for one embedding backend.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Target() model.EmbeddingTarget
}

// Factory materializes a Provider for a target. A construction error means
// the backend is not usable in this deployment, typically because its
// credentials are not configured.
type Factory func(ctx context.Context, target model.EmbeddingTarget) (Provider, error)

type geminiProvider struct {
	client adapter.Gemini
}

// NewGeminiProvider wraps a Gemini client as a Provider
func NewGeminiProvider(client adapter.Gemini) Provider {
	return &geminiProvider{client: client}
}

func (p *geminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.Embed(ctx, text)
}

func (p *geminiProvider) Target() model.EmbeddingTarget {
	return model.EmbeddingTarget{Provider: ProviderGemini, Model: p.client.Model()}
}

type openaiProvider struct {
	client adapter.OpenAI
}

// NewOpenAIProvider wraps an OpenAI client as a Provider
func NewOpenAIProvider(client adapter.OpenAI) Provider {
	return &openaiProvider{client: client}
}

func (p *openaiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.Embed(ctx, text)
}

func (p *openaiProvider) Target() model.EmbeddingTarget {
	return model.EmbeddingTarget{Provider: ProviderOpenAI, Model: p.client.Model()}
}

type ollamaProvider struct {
	client adapter.Ollama
}

// NewOllamaProvider wraps an Ollama client as a Provider
func NewOllamaProvider(client adapter.Ollama) Provider {
	return &ollamaProvider{client: client}
}

func (p *ollamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.Embed(ctx, text)
}

func (p *ollamaProvider) Target() model.EmbeddingTarget {
	return model.EmbeddingTarget{Provider: ProviderOllama, Model: p.client.Model()}
}
