package toolindex

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/interfaces"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/service/embedding"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// ProviderSource resolves the embedding backend used for the corpus
type ProviderSource interface {
	Select(ctx context.Context) (embedding.Provider, error)
}

// UseCase maintains the tool description corpus: batch indexing, staleness
// checks, and removal.
type UseCase struct {
	repo     repository.Repository
	catalog  interfaces.Catalog
	selector ProviderSource
}

// New creates a new toolindex UseCase instance
func New(repo repository.Repository, catalog interfaces.Catalog, selector ProviderSource) *UseCase {
	return &UseCase{
		repo:     repo,
		catalog:  catalog,
		selector: selector,
	}
}

// IndexTool embeds one catalog item and upserts it under the current model
func (u *UseCase) IndexTool(ctx context.Context, spec model.ToolSpec) error {
	provider, err := u.selector.Select(ctx)
	if err != nil {
		return err
	}
	return u.indexOne(ctx, provider, spec)
}

func (u *UseCase) indexOne(ctx context.Context, provider embedding.Provider, spec model.ToolSpec) error {
	vec, err := provider.Embed(ctx, spec.EmbeddingText())
	if err != nil {
		return goerr.Wrap(err, "failed to embed tool description",
			goerr.Value("tool_id", spec.ID),
			goerr.Value("target", provider.Target().String()),
		)
	}

	tool := &model.ToolEmbedding{
		ToolID:         spec.ID,
		DisplayName:    spec.DisplayName,
		Description:    spec.Description,
		Category:       spec.Category,
		CapabilityCode: spec.CapabilityCode,
		Embedding:      vec,
		EmbeddingModel: provider.Target().Model,
		EmbeddingDim:   len(vec),
	}

	if err := u.repo.PutToolEmbedding(ctx, tool); err != nil {
		return goerr.Wrap(err, "failed to upsert tool embedding", goerr.Value("tool_id", spec.ID))
	}

	return nil
}

// IndexAll walks the full catalog and indexes every item, counting
// successes. A failing item is logged and skipped so one broken description
// cannot abort the batch. Idempotent: re-running updates rows in place.
func (u *UseCase) IndexAll(ctx context.Context) (int, error) {
	logger := logging.From(ctx)

	provider, err := u.selector.Select(ctx)
	if err != nil {
		return 0, err
	}

	specs, err := u.catalog.ListTools(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list catalog")
	}

	indexed := 0
	for _, spec := range specs {
		if err := u.indexOne(ctx, provider, spec); err != nil {
			logger.Warn("skipping tool", "tool_id", spec.ID, "error", err)
			continue
		}
		indexed++
	}

	logger.Info("tool corpus indexed",
		"indexed", indexed,
		"catalog", len(specs),
		"model", provider.Target().Model,
	)
	return indexed, nil
}

// EnsureIndexed is the startup hook: it compares the stored row count for
// the current model against the catalog size and re-indexes only when rows
// are missing. Returns the number of items indexed, zero when already
// complete.
func (u *UseCase) EnsureIndexed(ctx context.Context) (int, error) {
	provider, err := u.selector.Select(ctx)
	if err != nil {
		return 0, err
	}

	specs, err := u.catalog.ListTools(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list catalog")
	}

	count, err := u.repo.CountToolEmbeddings(ctx, provider.Target().Model)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count tool embeddings")
	}

	if count >= int64(len(specs)) {
		logging.From(ctx).Debug("tool corpus already indexed",
			"stored", count,
			"catalog", len(specs),
			"model", provider.Target().Model,
		)
		return 0, nil
	}

	return u.IndexAll(ctx)
}

// RemoveTool deletes all embeddings of one tool across models
func (u *UseCase) RemoveTool(ctx context.Context, toolID string) (int, error) {
	return u.repo.DeleteToolEmbeddings(ctx, toolID)
}

// RemoveCapability deletes the embeddings of every tool in a capability pack
func (u *UseCase) RemoveCapability(ctx context.Context, capabilityCode string) (int, error) {
	return u.repo.DeleteToolEmbeddingsByCapability(ctx, capabilityCode)
}

// ReindexAll drops all rows for the current model and rebuilds the corpus
func (u *UseCase) ReindexAll(ctx context.Context) (int, error) {
	provider, err := u.selector.Select(ctx)
	if err != nil {
		return 0, err
	}

	deleted, err := u.repo.DeleteToolEmbeddingsByModel(ctx, provider.Target().Model)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to clear tool corpus",
			goerr.Value("model", provider.Target().Model),
		)
	}
	logging.From(ctx).Info("tool corpus cleared",
		"deleted", deleted,
		"model", provider.Target().Model,
	)

	return u.IndexAll(ctx)
}
