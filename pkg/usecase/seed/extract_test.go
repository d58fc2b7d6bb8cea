package seed_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/seed"
)

func TestExtract(t *testing.T) {
	t.Run("message falls back to raw text", func(t *testing.T) {
		event := &model.Event{
			Type:    model.EventMessageCreated,
			Payload: map[string]any{"text": "  deploy finished  "},
		}
		gt.Equal(t, "deploy finished", seed.Extract(event))
	})

	t.Run("file analysis beats raw text", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventMessageCreated,
			Payload: map[string]any{
				"text": "see attachment",
				"analysis": map[string]any{
					"extracted_text": "quarterly revenue grew 12%",
				},
			},
		}
		gt.Equal(t, "quarterly revenue grew 12%", seed.Extract(event))
	})

	t.Run("analysis summary used when no extracted text", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventMessageCreated,
			Payload: map[string]any{
				"file_info": map[string]any{
					"summary": "a spreadsheet of sales numbers",
				},
			},
		}
		gt.Equal(t, "a spreadsheet of sales numbers", seed.Extract(event))
	})

	t.Run("file name marker when analysis yields no text", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventMessageCreated,
			Payload: map[string]any{
				"file_info": map[string]any{"file_name": "report.pdf"},
			},
		}
		gt.Equal(t, "File: report.pdf", seed.Extract(event))
	})

	t.Run("message with nothing yields empty", func(t *testing.T) {
		event := &model.Event{Type: model.EventMessageCreated}
		gt.Equal(t, "", seed.Extract(event))
	})

	t.Run("intent joins title and description", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventIntentCreated,
			Payload: map[string]any{
				"title":       "Migrate billing service",
				"description": "move invoicing to the new pipeline",
			},
		}
		gt.Equal(t, "Migrate billing service\nmove invoicing to the new pipeline", seed.Extract(event))
	})

	t.Run("intent with only title", func(t *testing.T) {
		event := &model.Event{
			Type:    model.EventIntentUpdated,
			Payload: map[string]any{"title": "Migrate billing service"},
		}
		gt.Equal(t, "Migrate billing service", seed.Extract(event))
	})

	t.Run("project uses description only", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventProjectUpdated,
			Payload: map[string]any{
				"title":       "ignored",
				"description": "internal tooling platform",
			},
		}
		gt.Equal(t, "internal tooling platform", seed.Extract(event))
	})

	t.Run("note joins title and body with blank line", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventNoteUpdated,
			Payload: map[string]any{
				"title":   "Oncall notes",
				"content": "rotate pager at 9am",
			},
		}
		gt.Equal(t, "Oncall notes\n\nrotate pager at 9am", seed.Extract(event))
	})

	t.Run("note without title", func(t *testing.T) {
		event := &model.Event{
			Type:    model.EventNoteUpdated,
			Payload: map[string]any{"body": "rotate pager at 9am"},
		}
		gt.Equal(t, "rotate pager at 9am", seed.Extract(event))
	})

	t.Run("plan renders summary and numbered steps", func(t *testing.T) {
		event := &model.Event{
			Type: model.EventPlanCreated,
			Payload: map[string]any{
				"summary": "Release v2",
				"steps": []any{
					map[string]any{"name": "freeze", "description": "stop merges"},
					map[string]any{"name": "tag"},
				},
			},
		}
		text := seed.Extract(event)
		gt.Equal(t, "Release v2\n1. freeze: stop merges\n2. tag", text)
	})

	t.Run("plan serializes payload as last resort", func(t *testing.T) {
		event := &model.Event{
			Type:    model.EventPlanCreated,
			Payload: map[string]any{"goal": "ship it"},
		}
		text := seed.Extract(event)
		gt.True(t, strings.Contains(text, "ship it"))
	})

	t.Run("plan with empty payload yields empty", func(t *testing.T) {
		event := &model.Event{Type: model.EventPlanCreated, Payload: map[string]any{}}
		gt.Equal(t, "", seed.Extract(event))
	})

	t.Run("unknown type yields empty", func(t *testing.T) {
		event := &model.Event{
			Type:    model.EventType("unknown.event"),
			Payload: map[string]any{"text": "ignored"},
		}
		gt.Equal(t, "", seed.Extract(event))
	})
}
