package seed

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/repository"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// Generator produces an embedding for extracted text
type Generator interface {
	Generate(ctx context.Context, text string) (*model.Embedding, error)
}

// Outcome is the result classification of one ingestion attempt.
type Outcome string

const (
	// OutcomeStored means a new memory was written.
	OutcomeStored Outcome = "stored"
	// OutcomeReused means an existing memory already covers the event.
	OutcomeReused Outcome = "reused"
	// OutcomeSkipped means no embedding was produced. Reason carries the
	// classified cause.
	OutcomeSkipped Outcome = "skipped"
)

// Result reports what one Ingest call did. Reason carries the classified
// cause for skipped outcomes, and the primary-store failure when the record
// went to the archive tier.
type Result struct {
	Outcome  Outcome
	MemoryID model.MemoryID
	Archived bool
	Reason   error
}

// UseCase drives the embed-if-warranted pipeline: policy, extraction, dedup,
// generation, write with fallback.
type UseCase struct {
	repo      repository.Repository
	generator Generator
	policy    *Policy
	storage   adapter.Storage
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithPolicy replaces the built-in decision table policy
func WithPolicy(p *Policy) Option {
	return func(uc *UseCase) {
		uc.policy = p
	}
}

// WithFallbackStorage enables the archive tier used when the primary store
// rejects a write
func WithFallbackStorage(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = storage
	}
}

// New creates a new seed UseCase instance
func New(repo repository.Repository, generator Generator, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:      repo,
		generator: generator,
		policy:    NewPolicy(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Ingest embeds the event if warranted. Embedding is best-effort enrichment:
// every failure except a full storage outage is converted into a skipped
// Result so the caller's primary workflow is never blocked. The returned
// error is non-nil only when both storage tiers failed.
func (u *UseCase) Ingest(ctx context.Context, event *model.Event) (*Result, error) {
	logger := logging.From(ctx)

	if !u.policy.ShouldEmbed(ctx, event) {
		return &Result{
			Outcome: OutcomeSkipped,
			Reason:  goerr.Wrap(model.ErrPolicySkip, "", goerr.Value("event_type", event.Type)),
		}, nil
	}

	content := Extract(event)
	if content == "" {
		return &Result{
			Outcome: OutcomeSkipped,
			Reason:  goerr.Wrap(model.ErrExtractionEmpty, "", goerr.Value("event_type", event.Type)),
		}, nil
	}

	if existing := u.findExisting(ctx, event); existing != nil {
		logger.Debug("memory reused",
			"source_id", event.ID,
			"memory_id", existing.ID,
		)
		return &Result{Outcome: OutcomeReused, MemoryID: existing.ID}, nil
	}

	emb, err := u.generator.Generate(ctx, content)
	if err != nil {
		logger.Warn("embedding generation failed, skipping event",
			"source_id", event.ID,
			"error", err,
		)
		return &Result{Outcome: OutcomeSkipped, Reason: err}, nil
	}

	memory := buildMemory(event, content, emb)

	err = u.repo.PutMemory(ctx, memory)
	if err == nil {
		logger.Info("memory stored",
			"memory_id", memory.ID,
			"source_id", event.ID,
			"scope", memory.Scope,
			"model", memory.EmbeddingModel,
		)
		return &Result{Outcome: OutcomeStored, MemoryID: memory.ID}, nil
	}

	if errors.Is(err, model.ErrMemoryExists) {
		// Lost the race against a concurrent ingestion of the same event
		result := &Result{Outcome: OutcomeReused}
		if id, ok := goerr.Values(err)["memory_id"].(model.MemoryID); ok {
			result.MemoryID = id
		}
		return result, nil
	}

	storeErr := goerr.Wrap(model.ErrStorageUnavailable, "",
		goerr.Value("memory_id", memory.ID),
		goerr.Value("cause", err.Error()),
	)
	logger.Warn("primary store rejected memory, archiving",
		"memory_id", memory.ID,
		"error", storeErr,
	)
	if archiveErr := u.archive(ctx, memory); archiveErr != nil {
		return nil, goerr.Wrap(model.ErrStorageError, "memory lost: primary and fallback both failed",
			goerr.Value("memory_id", memory.ID),
			goerr.Value("primary", err.Error()),
			goerr.Value("fallback", archiveErr.Error()),
		)
	}

	return &Result{Outcome: OutcomeStored, MemoryID: memory.ID, Archived: true, Reason: storeErr}, nil
}
