package seed

import (
	"context"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// findExisting checks whether a memory already covers this event: first by
// source ID, then by file content hash. A hash hit links the new source onto
// the shared record so later source lookups resolve too. Lookup failures
// degrade to "no existing record"; the accepted cost is a rare duplicate,
// never a blocked ingestion.
func (u *UseCase) findExisting(ctx context.Context, event *model.Event) *model.Memory {
	logger := logging.From(ctx)

	existing, err := u.repo.GetMemoryBySource(ctx, event.ID)
	if err != nil {
		logger.Warn("source lookup failed, falling back to query",
			"source_id", event.ID,
			"error", err,
		)
		existing, err = u.repo.QueryMemoryBySource(ctx, event.ID)
		if err != nil {
			logger.Warn("source query failed, treating as new",
				"source_id", event.ID,
				"error", err,
			)
			return nil
		}
	}
	if existing != nil {
		return existing
	}

	if hash := event.Metadata.FileHash; hash != "" {
		existing, err = u.repo.FindMemoryByFileHash(ctx, hash)
		if err != nil {
			logger.Warn("file hash lookup failed, treating as new",
				"file_hash", hash,
				"error", err,
			)
			return nil
		}
		if existing != nil {
			if err := u.repo.LinkSource(ctx, event.ID, existing.ID); err != nil {
				logger.Warn("failed to link source to reused memory",
					"source_id", event.ID,
					"memory_id", existing.ID,
					"error", err,
				)
			}
			return existing
		}
	}

	return nil
}
