package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/interfaces"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// DefaultTarget is the hard fallback backend for corpus indexing when
// neither a local server nor a configured remote backend is usable.
var DefaultTarget = model.EmbeddingTarget{
	Provider: ProviderGemini,
	Model:    "gemini-embedding-001",
}

// Selector picks the embedding backend for corpus indexing. Unlike the
// ingestion path, indexing prefers a reachable local server, then the
// configured remote backend, then DefaultTarget.
type Selector struct {
	settings interfaces.Settings
	factory  Factory
	local    adapter.Ollama
}

type SelectorOption func(*Selector)

// WithLocal registers a local server to probe before remote backends
func WithLocal(client adapter.Ollama) SelectorOption {
	return func(x *Selector) {
		x.local = client
	}
}

// NewSelector creates a Selector bound to the given settings and factory
func NewSelector(settings interfaces.Settings, factory Factory, opts ...SelectorOption) *Selector {
	x := &Selector{
		settings: settings,
		factory:  factory,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Select resolves a usable Provider. Each candidate that fails is logged and
// skipped; the error is returned only when every candidate fails.
func (x *Selector) Select(ctx context.Context) (Provider, error) {
	logger := logging.From(ctx)

	if x.local != nil {
		if err := x.local.Alive(ctx); err == nil {
			return NewOllamaProvider(x.local), nil
		} else {
			logger.Debug("local embedding server not reachable", "error", err)
		}
	}

	candidates := []model.EmbeddingTarget{}
	if t := x.settings.EmbeddingTarget(); t.Model != "" && t.Provider != ProviderOllama {
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 || candidates[0] != DefaultTarget {
		candidates = append(candidates, DefaultTarget)
	}

	var lastErr error
	for _, target := range candidates {
		provider, err := x.factory(ctx, target)
		if err != nil {
			logger.Warn("embedding backend unusable, trying next",
				"target", target.String(),
				"error", err,
			)
			lastErr = err
			continue
		}
		return provider, nil
	}

	return nil, goerr.Wrap(model.ErrProviderUnavailable, "no usable embedding backend for indexing",
		goerr.Value("cause", lastErr),
	)
}
