package interfaces

import (
	"context"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Settings exposes the platform's current embedding configuration. The engine
// never hard-codes a backend; every generation call resolves through here.
type Settings interface {
	// EmbeddingTarget returns the configured model/provider pair for the
	// ingestion path.
	EmbeddingTarget() model.EmbeddingTarget
}

// Catalog enumerates the indexable capability items (tool descriptions).
type Catalog interface {
	ListTools(ctx context.Context) ([]model.ToolSpec, error)
}

// MigrationJobs lists re-embedding jobs tracked by the external migration
// runner.
type MigrationJobs interface {
	ListMigrationJobs(ctx context.Context, statuses ...model.MigrationJobStatus) ([]*model.MigrationJob, error)
}

// UsageStats provides aggregate embedding-model usage over stored memories.
type UsageStats interface {
	ModelUsage(ctx context.Context, models ...string) (map[string]model.ModelUsage, error)
}
