package seed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

// classify computes scope and importance from the fixed rule table. First
// matching row wins.
func classify(event *model.Event) (model.Scope, float64) {
	switch {
	case event.Type == model.EventProjectUpdated:
		return model.ScopeGlobal, 0.8

	case event.Type == model.EventIntentCreated || event.Type == model.EventIntentUpdated:
		switch event.PayloadString("priority") {
		case "high", "critical":
			return model.ScopeIntent, 0.9
		case "normal":
			return model.ScopeIntent, 0.7
		default:
			return model.ScopeIntent, 0.5
		}

	case event.WorkspaceID != "":
		switch {
		case event.Metadata.IsFinal || event.Metadata.IsArtifact:
			return model.ScopeWorkspace, 0.8
		case event.Metadata.ShouldEmbed:
			return model.ScopeWorkspace, 0.7
		default:
			return model.ScopeWorkspace, 0.5
		}

	default:
		return model.ScopeGlobal, 0.6
	}
}

func payloadTags(event *model.Event) []string {
	raw, ok := event.Payload["tags"].([]any)
	if !ok {
		return nil
	}
	var tags []string
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

// buildMemory assembles the full record for the primary store
func buildMemory(event *model.Event, content string, emb *model.Embedding) *model.Memory {
	scope, importance := classify(event)

	return &model.Memory{
		ID:            model.NewMemoryID(),
		SourceID:      event.ID,
		SourceContext: model.BuildSourceContext(scope, event.WorkspaceID, event.IntentID),
		Content:       content,

		Embedding:          emb.Vector,
		EmbeddingModel:     emb.Model,
		EmbeddingProvider:  emb.Provider,
		EmbeddingDimension: emb.Dimension,

		SeedType:   model.SeedTypeForEvent(event.Type),
		Scope:      scope,
		Importance: importance,
		Confidence: importance,
		Weight:     importance,

		WorkspaceID: event.WorkspaceID,
		IntentID:    event.IntentID,

		Tags: payloadTags(event),
		Meta: model.MemoryMeta{
			EventType: event.Type,
			Actor:     event.Actor,
			Channel:   event.Channel,
			FileHash:  event.Metadata.FileHash,
			FileName:  event.Metadata.FileName,
			Extra:     event.Metadata.Extra,
		},

		CreatedAt: time.Now(),
	}
}

// archiveRecord is the reduced schema written to the fallback tier when the
// primary store is down. Kept compatible with the offline import job.
type archiveRecord struct {
	ID             model.MemoryID `json:"id"`
	SourceID       model.EventID  `json:"source_id"`
	Content        string         `json:"content"`
	SeedType       model.SeedType `json:"seed_type"`
	Confidence     float64        `json:"confidence"`
	Weight         float64        `json:"weight"`
	Embedding      []float32      `json:"embedding"`
	EmbeddingModel string         `json:"embedding_model"`
	CreatedAt      time.Time      `json:"created_at"`
}

// archive writes the memory to the fallback storage tier
func (u *UseCase) archive(ctx context.Context, memory *model.Memory) error {
	if u.storage == nil {
		return goerr.New("no fallback storage configured")
	}

	record := archiveRecord{
		ID:             memory.ID,
		SourceID:       memory.SourceID,
		Content:        memory.Content,
		SeedType:       memory.SeedType,
		Confidence:     1.0,
		Weight:         1.0,
		Embedding:      memory.Embedding,
		EmbeddingModel: memory.EmbeddingModel,
		CreatedAt:      memory.CreatedAt,
	}

	key := "memories/" + string(memory.ID) + ".json"
	w, err := u.storage.Put(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to open archive object", goerr.Value("key", key))
	}

	if err := json.NewEncoder(w).Encode(record); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode archive record", goerr.Value("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize archive object", goerr.Value("key", key))
	}

	logging.From(ctx).Info("memory archived to fallback storage",
		"memory_id", memory.ID,
		"key", key,
	)
	return nil
}
