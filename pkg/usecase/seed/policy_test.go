package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/seed"
)

func TestEligible(t *testing.T) {
	cases := []struct {
		name  string
		event *model.Event
		want  bool
	}{
		{
			name:  "explicit should_embed flag",
			event: &model.Event{Type: model.EventMessageCreated, Metadata: model.EventMetadata{ShouldEmbed: true}},
			want:  true,
		},
		{
			name:  "final flag",
			event: &model.Event{Type: model.EventMessageCreated, Metadata: model.EventMetadata{IsFinal: true}},
			want:  true,
		},
		{
			name:  "artifact flag",
			event: &model.Event{Type: model.EventNoteUpdated, Metadata: model.EventMetadata{IsArtifact: true}},
			want:  true,
		},
		{
			name:  "completed intent",
			event: &model.Event{Type: model.EventIntentUpdated, Payload: map[string]any{"status": "completed"}},
			want:  true,
		},
		{
			name:  "high priority intent",
			event: &model.Event{Type: model.EventIntentCreated, Payload: map[string]any{"priority": "high"}},
			want:  true,
		},
		{
			name:  "low priority pending intent",
			event: &model.Event{Type: model.EventIntentCreated, Payload: map[string]any{"priority": "low", "status": "pending"}},
			want:  false,
		},
		{
			name:  "workflow final output",
			event: &model.Event{Type: model.EventWorkflowStepCompleted, Payload: map[string]any{"is_final_output": true}},
			want:  true,
		},
		{
			name:  "completed output step",
			event: &model.Event{Type: model.EventWorkflowStepCompleted, Payload: map[string]any{"step_type": "output", "status": "completed"}},
			want:  true,
		},
		{
			name:  "incomplete output step",
			event: &model.Event{Type: model.EventWorkflowStepCompleted, Payload: map[string]any{"step_type": "output", "status": "running"}},
			want:  false,
		},
		{
			name:  "message from completed playbook",
			event: &model.Event{Type: model.EventMessageCreated, Metadata: model.EventMetadata{FromCompletedPlaybook: true}},
			want:  true,
		},
		{
			name:  "plain message",
			event: &model.Event{Type: model.EventMessageCreated, Payload: map[string]any{"text": "hello"}},
			want:  false,
		},
		{
			name:  "plan is always eligible",
			event: &model.Event{Type: model.EventPlanCreated},
			want:  true,
		},
		{
			name:  "plan with empty payload is still eligible",
			event: &model.Event{Type: model.EventPlanCreated, Payload: map[string]any{}},
			want:  true,
		},
		{
			name:  "note without flags",
			event: &model.Event{Type: model.EventNoteUpdated, Payload: map[string]any{"title": "memo"}},
			want:  false,
		},
		{
			name:  "unknown type",
			event: &model.Event{Type: model.EventType("unknown.event")},
			want:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, tc.want, seed.Eligible(tc.event))
		})
	}
}

func TestPolicyOverride(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	policy := `package embed

import rego.v1

force if {
	input.metadata.extra["vip"] == true
}
`
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "embed.rego"), []byte(policy), 0o644))

	p, err := seed.LoadPolicy(ctx, dir)
	gt.NoError(t, err)

	t.Run("forced event passes despite table", func(t *testing.T) {
		event := &model.Event{
			Type:     model.EventMessageCreated,
			Payload:  map[string]any{"text": "hello"},
			Metadata: model.EventMetadata{Extra: map[string]any{"vip": true}},
		}
		gt.False(t, seed.Eligible(event))
		gt.True(t, p.ShouldEmbed(ctx, event))
	})

	t.Run("unforced event falls back to table", func(t *testing.T) {
		event := &model.Event{
			Type:    model.EventMessageCreated,
			Payload: map[string]any{"text": "hello"},
		}
		gt.False(t, p.ShouldEmbed(ctx, event))
	})

	t.Run("empty policy dir keeps table behavior", func(t *testing.T) {
		p, err := seed.LoadPolicy(ctx, t.TempDir())
		gt.NoError(t, err)
		gt.True(t, p.ShouldEmbed(ctx, &model.Event{Type: model.EventPlanCreated}))
	})
}
