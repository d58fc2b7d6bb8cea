package search

import (
	"context"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/service/embedding"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// Status classifies one retrieval call. Callers must be able to tell
// "nothing relevant" apart from "retrieval is broken", so miss and error are
// distinct values rather than both collapsing to an empty list.
type Status string

const (
	// StatusHit means at least one match passed the score filter.
	StatusHit Status = "hit"
	// StatusMiss means retrieval worked but nothing qualified.
	StatusMiss Status = "miss"
	// StatusError means query embedding or the store lookup failed.
	StatusError Status = "error"
)

// Generator produces an embedding for the query text
type Generator interface {
	Generate(ctx context.Context, text string) (*model.Embedding, error)
}

// ProviderSource resolves the backend whose model the tool corpus is
// indexed under
type ProviderSource interface {
	Select(ctx context.Context) (embedding.Provider, error)
}

// Input is one similarity search request.
type Input struct {
	Query    string
	TopK     int
	MinScore float64
}

func (x *Input) topK() int {
	if x.TopK <= 0 {
		return 5
	}
	return x.TopK
}

// Memories is the result of a memory search.
type Memories struct {
	Status   Status
	Memories []*model.Memory
}

// Tools is the result of a tool corpus search.
type Tools struct {
	Status Status
	Tools  []*model.ToolEmbedding
}

// UseCase serves similarity search over memories and the tool corpus
type UseCase struct {
	repo      repository.Repository
	generator Generator
	selector  ProviderSource
}

// New creates a new search UseCase instance
func New(repo repository.Repository, generator Generator, selector ProviderSource) *UseCase {
	return &UseCase{
		repo:      repo,
		generator: generator,
		selector:  selector,
	}
}

// Memories embeds the query with the configured backend and ranks stored
// memories of the same model by cosine similarity. Failures come back as
// StatusError with an empty list, never as a raised error.
func (u *UseCase) Memories(ctx context.Context, input *Input) *Memories {
	logger := logging.From(ctx)

	emb, err := u.generator.Generate(ctx, input.Query)
	if err != nil {
		logger.Warn("query embedding failed", "error", err)
		return &Memories{Status: StatusError}
	}

	found, err := u.repo.SearchMemories(ctx, emb.Vector, emb.Model, input.topK())
	if err != nil {
		logger.Warn("memory search failed", "model", emb.Model, "error", err)
		return &Memories{Status: StatusError}
	}

	matched := make([]*model.Memory, 0, len(found))
	for _, m := range found {
		if m.Score >= input.MinScore {
			matched = append(matched, m)
		}
	}

	if len(matched) == 0 {
		return &Memories{Status: StatusMiss}
	}
	return &Memories{Status: StatusHit, Memories: matched}
}

// Tools ranks the tool corpus against the query. The query is embedded with
// the same backend the corpus indexer selects, so model strings line up.
func (u *UseCase) Tools(ctx context.Context, input *Input) *Tools {
	logger := logging.From(ctx)

	provider, err := u.selector.Select(ctx)
	if err != nil {
		logger.Warn("no embedding backend for tool search", "error", err)
		return &Tools{Status: StatusError}
	}

	vec, err := provider.Embed(ctx, input.Query)
	if err != nil {
		logger.Warn("query embedding failed",
			"target", provider.Target().String(),
			"error", err,
		)
		return &Tools{Status: StatusError}
	}

	found, err := u.repo.SearchToolEmbeddings(ctx, vec, provider.Target().Model, input.topK())
	if err != nil {
		logger.Warn("tool search failed", "model", provider.Target().Model, "error", err)
		return &Tools{Status: StatusError}
	}

	matched := make([]*model.ToolEmbedding, 0, len(found))
	for _, tool := range found {
		if tool.Score >= input.MinScore {
			matched = append(matched, tool)
		}
	}

	if len(matched) == 0 {
		return &Tools{Status: StatusMiss}
	}
	return &Tools{Status: StatusHit, Tools: matched}
}
