package model

import (
	"github.com/google/uuid"
)

type EventID string

// NewEventID generates a new unique EventID
func NewEventID() EventID {
	return EventID(uuid.New().String())
}

// EventType identifies the kind of domain event delivered by the platform
// event bus. The engine only reacts to the types listed here; everything else
// is passed through without embedding.
type EventType string

const (
	EventMessageCreated        EventType = "message.created"
	EventIntentCreated         EventType = "intent.created"
	EventIntentUpdated         EventType = "intent.updated"
	EventProjectUpdated        EventType = "project.updated"
	EventNoteUpdated           EventType = "note.updated"
	EventWorkflowStepCompleted EventType = "workflow.step_completed"
	EventPlanCreated           EventType = "plan.created"
)

// Event is a domain event as received from the ingestion pipeline. Payload
// keeps the raw event body (shape differs per type); Metadata carries the
// flags the embedding policy inspects.
type Event struct {
	ID          EventID        `json:"id"`
	Type        EventType      `json:"type"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	IntentID    string         `json:"intent_id,omitempty"`
	Actor       string         `json:"actor,omitempty"`
	Channel     string         `json:"channel,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	Metadata    EventMetadata  `json:"metadata"`
}

// EventMetadata holds the known embedding-relevant flags plus an open
// extension map for fields the engine stores but does not interpret.
type EventMetadata struct {
	ShouldEmbed           bool   `json:"should_embed,omitempty"`
	IsFinal               bool   `json:"is_final,omitempty"`
	IsArtifact            bool   `json:"is_artifact,omitempty"`
	FromCompletedPlaybook bool   `json:"from_completed_playbook,omitempty"`
	IsArtifactOutput      bool   `json:"is_artifact_output,omitempty"`
	FileHash              string `json:"file_hash,omitempty"`
	FileName              string `json:"file_name,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// PayloadString returns the first non-empty string value among the given
// payload keys.
func (e *Event) PayloadString(keys ...string) string {
	if e == nil || e.Payload == nil {
		return ""
	}
	for _, key := range keys {
		if s, ok := e.Payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
