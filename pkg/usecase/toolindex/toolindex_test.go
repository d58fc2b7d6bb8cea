package toolindex_test

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/service/embedding"
	"github.com/m-mizutani/burrow/pkg/usecase/toolindex"
)

type mockRepo struct {
	repository.Repository

	tools map[string]*model.ToolEmbedding
}

func newMockRepo() *mockRepo {
	return &mockRepo{tools: make(map[string]*model.ToolEmbedding)}
}

func toolKey(toolID, embeddingModel string) string {
	return toolID + "__" + embeddingModel
}

func (m *mockRepo) PutToolEmbedding(ctx context.Context, tool *model.ToolEmbedding) error {
	m.tools[toolKey(tool.ToolID, tool.EmbeddingModel)] = tool
	return nil
}

func (m *mockRepo) GetToolEmbedding(ctx context.Context, toolID, embeddingModel string) (*model.ToolEmbedding, error) {
	return m.tools[toolKey(toolID, embeddingModel)], nil
}

func (m *mockRepo) CountToolEmbeddings(ctx context.Context, embeddingModel string) (int64, error) {
	var count int64
	for _, tool := range m.tools {
		if tool.EmbeddingModel == embeddingModel {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) DeleteToolEmbeddings(ctx context.Context, toolID string) (int, error) {
	deleted := 0
	for key, tool := range m.tools {
		if tool.ToolID == toolID {
			delete(m.tools, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockRepo) DeleteToolEmbeddingsByCapability(ctx context.Context, capabilityCode string) (int, error) {
	deleted := 0
	for key, tool := range m.tools {
		if tool.CapabilityCode == capabilityCode {
			delete(m.tools, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockRepo) DeleteToolEmbeddingsByModel(ctx context.Context, embeddingModel string) (int, error) {
	deleted := 0
	for key, tool := range m.tools {
		if tool.EmbeddingModel == embeddingModel {
			delete(m.tools, key)
			deleted++
		}
	}
	return deleted, nil
}

type mockCatalog struct {
	specs []model.ToolSpec
}

func (m *mockCatalog) ListTools(ctx context.Context) ([]model.ToolSpec, error) {
	return m.specs, nil
}

type mockProvider struct {
	embedCalls int
	embedErrOn string
}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.embedErrOn != "" && text == m.embedErrOn {
		return nil, goerr.New("embedding failed")
	}
	return firestore.Vector32{0.1, 0.2}, nil
}

func (m *mockProvider) Target() model.EmbeddingTarget {
	return model.EmbeddingTarget{Provider: "ollama", Model: "nomic-embed-text"}
}

type mockSelector struct {
	provider *mockProvider
	err      error
}

func (m *mockSelector) Select(ctx context.Context) (embedding.Provider, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.provider, nil
}

func testCatalog() *mockCatalog {
	return &mockCatalog{specs: []model.ToolSpec{
		{ID: "github", DisplayName: "GitHub", Description: "manage repositories and pull requests", CapabilityCode: "dev"},
		{ID: "slack", DisplayName: "Slack", Description: "send messages to channels", CapabilityCode: "comm"},
		{ID: "notion", DisplayName: "Notion", Description: "read and write pages", CapabilityCode: "docs"},
	}}
}

func TestIndexAll(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	provider := &mockProvider{}
	uc := toolindex.New(repo, testCatalog(), &mockSelector{provider: provider})

	indexed, err := uc.IndexAll(ctx)
	gt.NoError(t, err)
	gt.Equal(t, 3, indexed)
	gt.Equal(t, 3, len(repo.tools))

	stored, err := repo.GetToolEmbedding(ctx, "github", "nomic-embed-text")
	gt.NoError(t, err)
	gt.V(t, stored).NotNil()
	gt.Equal(t, "GitHub", stored.DisplayName)
	gt.Equal(t, 2, stored.EmbeddingDim)
}

func TestIndexAllIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	uc := toolindex.New(repo, testCatalog(), &mockSelector{provider: &mockProvider{}})

	_, err := uc.IndexAll(ctx)
	gt.NoError(t, err)
	_, err = uc.IndexAll(ctx)
	gt.NoError(t, err)

	// Upsert by (tool_id, model): still one row per tool
	gt.Equal(t, 3, len(repo.tools))
}

func TestIndexAllSkipsFailingItem(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	catalog := testCatalog()
	provider := &mockProvider{embedErrOn: catalog.specs[1].EmbeddingText()}
	uc := toolindex.New(repo, catalog, &mockSelector{provider: provider})

	indexed, err := uc.IndexAll(ctx)
	gt.NoError(t, err)
	gt.Equal(t, 2, indexed)
	gt.Equal(t, 2, len(repo.tools))
}

func TestEnsureIndexed(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	provider := &mockProvider{}
	uc := toolindex.New(repo, testCatalog(), &mockSelector{provider: provider})

	indexed, err := uc.EnsureIndexed(ctx)
	gt.NoError(t, err)
	gt.Equal(t, 3, indexed)

	// Second run finds a complete corpus and embeds nothing
	calls := provider.embedCalls
	indexed, err = uc.EnsureIndexed(ctx)
	gt.NoError(t, err)
	gt.Equal(t, 0, indexed)
	gt.Equal(t, calls, provider.embedCalls)
}

func TestEnsureIndexedFillsGap(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	uc := toolindex.New(repo, testCatalog(), &mockSelector{provider: &mockProvider{}})

	_, err := uc.IndexAll(ctx)
	gt.NoError(t, err)

	_, err = uc.RemoveTool(ctx, "slack")
	gt.NoError(t, err)

	indexed, err := uc.EnsureIndexed(ctx)
	gt.NoError(t, err)
	gt.Equal(t, 3, indexed)
	gt.Equal(t, 3, len(repo.tools))
}

func TestRemoveCapability(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	uc := toolindex.New(repo, testCatalog(), &mockSelector{provider: &mockProvider{}})

	_, err := uc.IndexAll(ctx)
	gt.NoError(t, err)

	deleted, err := uc.RemoveCapability(ctx, "comm")
	gt.NoError(t, err)
	gt.Equal(t, 1, deleted)
	gt.Equal(t, 2, len(repo.tools))
}

func TestReindexAll(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	uc := toolindex.New(repo, testCatalog(), &mockSelector{provider: &mockProvider{}})

	_, err := uc.IndexAll(ctx)
	gt.NoError(t, err)

	// A row from another model must survive the reindex
	gt.NoError(t, repo.PutToolEmbedding(ctx, &model.ToolEmbedding{
		ToolID:         "github",
		EmbeddingModel: "old-model",
		Embedding:      firestore.Vector32{0.9},
	}))

	indexed, err := uc.ReindexAll(ctx)
	gt.NoError(t, err)
	gt.Equal(t, 3, indexed)
	gt.Equal(t, 4, len(repo.tools))
}

func TestIndexNoBackend(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepo()
	sel := &mockSelector{err: goerr.Wrap(model.ErrProviderUnavailable, "nothing usable")}
	uc := toolindex.New(repo, testCatalog(), sel)

	_, err := uc.IndexAll(ctx)
	gt.Error(t, err)
}
