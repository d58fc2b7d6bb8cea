package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// Failure taxonomy of the embedding pipeline. Callers distinguish these with
// errors.Is; everything up to ErrStorageUnavailable is converted to "no
// embedding produced" by the ingest usecase, only ErrStorageError escapes to
// the primary workflow.
var (
	// ErrPolicySkip marks an event the policy declined. Expected, not a fault.
	ErrPolicySkip = goerr.New("event not eligible for embedding")

	// ErrExtractionEmpty marks an event that passed policy but produced no
	// embeddable text.
	ErrExtractionEmpty = goerr.New("no embeddable text in event")

	// ErrProviderUnavailable marks a provider that cannot be constructed:
	// missing credentials or configuration.
	ErrProviderUnavailable = goerr.New("embedding provider unavailable")

	// ErrProviderError marks a generation call that failed at the provider:
	// network error, API error, malformed response.
	ErrProviderError = goerr.New("embedding generation failed")

	// ErrStorageUnavailable marks the primary store being unreachable; the
	// fallback tier is attempted next.
	ErrStorageUnavailable = goerr.New("primary memory store unavailable")

	// ErrStorageError marks all storage tiers failing. This one propagates.
	ErrStorageError = goerr.New("all memory store tiers failed")

	// ErrMemoryExists is returned when a memory already exists for the
	// source event; the existing record ID is attached as "memory_id".
	ErrMemoryExists = goerr.New("memory already exists for source")
)
