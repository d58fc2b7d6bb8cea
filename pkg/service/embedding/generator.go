package embedding

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/interfaces"
	"github.com/m-mizutani/burrow/pkg/model"
)

// Generator produces embeddings on the memory ingestion path. The backend is
// resolved from platform settings on every call, so a settings change takes
// effect immediately without probing or restarts.
type Generator struct {
	settings interfaces.Settings
	factory  Factory
}

// NewGenerator creates a Generator bound to the given settings and factory
func NewGenerator(settings interfaces.Settings, factory Factory) *Generator {
	return &Generator{
		settings: settings,
		factory:  factory,
	}
}

// Generate embeds the text with the currently configured backend. The stored
// model name is the exact string from settings, never normalized.
func (g *Generator) Generate(ctx context.Context, text string) (*model.Embedding, error) {
	target := g.settings.EmbeddingTarget()

	provider, err := g.factory(ctx, target)
	if err != nil {
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "cannot construct embedding provider",
			goerr.Value("target", target.String()),
			goerr.Value("cause", err.Error()),
		)
	}

	vec, err := provider.Embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(model.ErrProviderError, "embedding call failed",
			goerr.Value("target", target.String()),
			goerr.Value("cause", err.Error()),
		)
	}
	if len(vec) == 0 {
		return nil, goerr.Wrap(model.ErrProviderError, "provider returned empty vector",
			goerr.Value("target", target.String()),
		)
	}

	return &model.Embedding{
		Vector:    vec,
		Model:     target.Model,
		Provider:  target.Provider,
		Dimension: len(vec),
	}, nil
}
