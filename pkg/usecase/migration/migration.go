package migration

import (
	"context"
	"fmt"

	"github.com/m-mizutani/burrow/pkg/interfaces"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// UseCase assesses whether a model change left stored embeddings stale
// enough to warrant re-embedding. Purely advisory: it never blocks the
// caller, and query failures produce a degraded assessment instead of an
// error.
type UseCase struct {
	stats interfaces.UsageStats
	jobs  interfaces.MigrationJobs
}

// New creates a new migration UseCase instance
func New(stats interfaces.UsageStats, jobs interfaces.MigrationJobs) *UseCase {
	return &UseCase{
		stats: stats,
		jobs:  jobs,
	}
}

// Assess compares embedding coverage between the previous and next backend
func (u *UseCase) Assess(ctx context.Context, previous, next model.EmbeddingTarget) *model.MigrationAssessment {
	logger := logging.From(ctx)

	assessment := &model.MigrationAssessment{
		Previous: previous,
		Next:     next,
	}

	usage, err := u.stats.ModelUsage(ctx, previous.Model, next.Model)
	if err != nil {
		logger.Warn("usage statistics unavailable", "error", err)
		assessment.Degraded = true
		assessment.Recommendation = "unable to query embedding usage; re-run the assessment once statistics are reachable"
		return assessment
	}
	assessment.PreviousUsage = usage[previous.Model]
	assessment.NextUsage = usage[next.Model]

	active, err := u.jobs.ListMigrationJobs(ctx, model.MigrationPending, model.MigrationActive)
	if err != nil {
		logger.Warn("migration jobs unavailable", "error", err)
		assessment.Degraded = true
		assessment.Recommendation = "unable to query migration jobs; re-run the assessment once the tracker is reachable"
		return assessment
	}
	for _, job := range active {
		if job.Covers(previous, next) {
			assessment.HasActiveMigration = true
			break
		}
	}

	prevCount := assessment.PreviousUsage.Count
	nextCount := assessment.NextUsage.Count

	assessment.NeedsMigration = prevCount > 0 &&
		(nextCount < prevCount || nextCount == 0) &&
		!assessment.HasActiveMigration

	assessment.Recommendation = recommend(prevCount, nextCount, assessment.NeedsMigration, assessment.HasActiveMigration)
	return assessment
}

// recommend picks the advisory text, first match wins
func recommend(prevCount, nextCount int64, needs, hasActive bool) string {
	switch {
	case prevCount == 0 && nextCount == 0:
		return "no embeddings recorded for either model; nothing to migrate"
	case nextCount == 0:
		return fmt.Sprintf("strongly recommend re-embedding all documents: %d embeddings exist for the previous model and none for the new one", prevCount)
	case nextCount < prevCount:
		return fmt.Sprintf("missing %d embeddings, recommend filling the gap", prevCount-nextCount)
	case needs:
		return "recommend re-embedding documents with the new model"
	case hasActive:
		return "a migration for this model pair is already in progress; wait for completion"
	default:
		return "re-embedding may not be necessary: the new model already covers at least as many documents"
	}
}
