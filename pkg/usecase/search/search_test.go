package search_test

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/service/embedding"
	"github.com/m-mizutani/burrow/pkg/usecase/search"
)

// mockRepo stubs only the search methods; the embedded interface panics on
// anything else, which would indicate the usecase calling beyond its
// contract.
type mockRepo struct {
	repository.Repository

	memories  []*model.Memory
	tools     []*model.ToolEmbedding
	searchErr error

	gotModel string
	gotLimit int
}

func (m *mockRepo) SearchMemories(ctx context.Context, vec firestore.Vector32, embeddingModel string, limit int) ([]*model.Memory, error) {
	m.gotModel = embeddingModel
	m.gotLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.memories, nil
}

func (m *mockRepo) SearchToolEmbeddings(ctx context.Context, vec firestore.Vector32, embeddingModel string, limit int) ([]*model.ToolEmbedding, error) {
	m.gotModel = embeddingModel
	m.gotLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.tools, nil
}

type mockGenerator struct {
	err error
}

func (m *mockGenerator) Generate(ctx context.Context, text string) (*model.Embedding, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &model.Embedding{
		Vector:    []float32{0.1, 0.2},
		Model:     "test-embedding-model",
		Provider:  "gemini",
		Dimension: 2,
	}, nil
}

type mockProvider struct{}

func (m *mockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (m *mockProvider) Target() model.EmbeddingTarget {
	return model.EmbeddingTarget{Provider: "ollama", Model: "nomic-embed-text"}
}

type mockSelector struct {
	err error
}

func (m *mockSelector) Select(ctx context.Context) (embedding.Provider, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &mockProvider{}, nil
}

func scored(score float64) *model.Memory {
	return &model.Memory{
		ID:             model.NewMemoryID(),
		Content:        "something remembered",
		EmbeddingModel: "test-embedding-model",
		Score:          score,
	}
}

func TestSearchMemories(t *testing.T) {
	ctx := context.Background()

	t.Run("hit with score filter applied", func(t *testing.T) {
		repo := &mockRepo{memories: []*model.Memory{scored(0.92), scored(0.81), scored(0.40)}}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		result := uc.Memories(ctx, &search.Input{Query: "dark mode", TopK: 10, MinScore: 0.7})
		gt.Equal(t, search.StatusHit, result.Status)
		gt.A(t, result.Memories).Length(2)
		gt.Equal(t, "test-embedding-model", repo.gotModel)
		gt.Equal(t, 10, repo.gotLimit)
	})

	t.Run("miss when nothing qualifies", func(t *testing.T) {
		repo := &mockRepo{memories: []*model.Memory{scored(0.40)}}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		result := uc.Memories(ctx, &search.Input{Query: "dark mode", MinScore: 0.7})
		gt.Equal(t, search.StatusMiss, result.Status)
		gt.A(t, result.Memories).Length(0)
	})

	t.Run("miss when store is empty", func(t *testing.T) {
		repo := &mockRepo{}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		result := uc.Memories(ctx, &search.Input{Query: "dark mode"})
		gt.Equal(t, search.StatusMiss, result.Status)
	})

	t.Run("error when query embedding fails", func(t *testing.T) {
		repo := &mockRepo{memories: []*model.Memory{scored(0.92)}}
		gen := &mockGenerator{err: goerr.Wrap(model.ErrProviderError, "api down")}
		uc := search.New(repo, gen, &mockSelector{})

		result := uc.Memories(ctx, &search.Input{Query: "dark mode"})
		gt.Equal(t, search.StatusError, result.Status)
		gt.A(t, result.Memories).Length(0)
	})

	t.Run("error when store query fails", func(t *testing.T) {
		repo := &mockRepo{searchErr: goerr.New("index offline")}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		result := uc.Memories(ctx, &search.Input{Query: "dark mode"})
		gt.Equal(t, search.StatusError, result.Status)
	})

	t.Run("default top k", func(t *testing.T) {
		repo := &mockRepo{}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		uc.Memories(ctx, &search.Input{Query: "dark mode"})
		gt.Equal(t, 5, repo.gotLimit)
	})
}

func TestSearchTools(t *testing.T) {
	ctx := context.Background()

	t.Run("queries under the selected corpus model", func(t *testing.T) {
		repo := &mockRepo{tools: []*model.ToolEmbedding{
			{ToolID: "github", Score: 0.88, EmbeddingModel: "nomic-embed-text"},
		}}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		result := uc.Tools(ctx, &search.Input{Query: "create a pull request", MinScore: 0.5})
		gt.Equal(t, search.StatusHit, result.Status)
		gt.A(t, result.Tools).Length(1)
		gt.Equal(t, "nomic-embed-text", repo.gotModel)
	})

	t.Run("error when no backend is usable", func(t *testing.T) {
		repo := &mockRepo{}
		sel := &mockSelector{err: goerr.Wrap(model.ErrProviderUnavailable, "nothing configured")}
		uc := search.New(repo, &mockGenerator{}, sel)

		result := uc.Tools(ctx, &search.Input{Query: "create a pull request"})
		gt.Equal(t, search.StatusError, result.Status)
	})

	t.Run("miss below min score", func(t *testing.T) {
		repo := &mockRepo{tools: []*model.ToolEmbedding{{ToolID: "github", Score: 0.3}}}
		uc := search.New(repo, &mockGenerator{}, &mockSelector{})

		result := uc.Tools(ctx, &search.Input{Query: "create a pull request", MinScore: 0.7})
		gt.Equal(t, search.StatusMiss, result.Status)
	})
}
