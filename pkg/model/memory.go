package model

import (
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// SeedType classifies what kind of content a memory was grown from.
type SeedType string

const (
	SeedConversation SeedType = "conversation"
	SeedIntent       SeedType = "intent"
	SeedProject      SeedType = "project"
	SeedWorkflow     SeedType = "workflow"
	SeedPlan         SeedType = "plan"
	SeedGeneral      SeedType = "general"
)

// SeedTypeForEvent maps an event type to the seed type recorded on the
// resulting memory. Unknown types fall back to general.
func SeedTypeForEvent(t EventType) SeedType {
	switch t {
	case EventMessageCreated:
		return SeedConversation
	case EventIntentCreated, EventIntentUpdated:
		return SeedIntent
	case EventProjectUpdated:
		return SeedProject
	case EventNoteUpdated:
		return SeedGeneral
	case EventWorkflowStepCompleted:
		return SeedWorkflow
	case EventPlanCreated:
		return SeedPlan
	default:
		return SeedGeneral
	}
}

// Scope is the breadth of applicability of a memory.
type Scope string

const (
	ScopeGlobal    Scope = "global"
	ScopeWorkspace Scope = "workspace"
	ScopeIntent    Scope = "intent"
)

// Embedding is the result of one generation call. Model and Provider are
// recorded verbatim from whatever the generator actually used; downstream
// same-model filters and the tool table uniqueness depend on the exact string.
type Embedding struct {
	Vector    []float32
	Model     string
	Provider  string
	Dimension int
}

// MemoryMeta carries the typed metadata recorded alongside a memory, with an
// explicit extension map for forward-compatible fields.
type MemoryMeta struct {
	EventType EventType      `firestore:"event_type" json:"event_type"`
	Actor     string         `firestore:"actor,omitempty" json:"actor,omitempty"`
	Channel   string         `firestore:"channel,omitempty" json:"channel,omitempty"`
	FileHash  string         `firestore:"file_hash,omitempty" json:"file_hash,omitempty"`
	FileName  string         `firestore:"file_name,omitempty" json:"file_name,omitempty"`
	Extra     map[string]any `firestore:"extra,omitempty" json:"extra,omitempty"`
}

// Memory is a stored embedding of ingested event content plus hierarchical
// metadata. Created once when policy and dedup both pass; never mutated
// afterwards except the UpdatedAt refresh on write.
type Memory struct {
	ID            MemoryID `firestore:"id"`
	SourceID      EventID  `firestore:"source_id"`
	SourceContext string   `firestore:"source_context,omitempty"`
	Content       string   `firestore:"content"`

	Embedding          firestore.Vector32 `firestore:"embedding"`
	EmbeddingModel     string             `firestore:"embedding_model"`
	EmbeddingProvider  string             `firestore:"embedding_provider"`
	EmbeddingDimension int                `firestore:"embedding_dimension"`

	SeedType   SeedType `firestore:"seed_type"`
	Scope      Scope    `firestore:"scope"`
	Importance float64  `firestore:"importance"`
	Confidence float64  `firestore:"confidence"`
	Weight     float64  `firestore:"weight"`

	WorkspaceID string `firestore:"workspace_id,omitempty"`
	IntentID    string `firestore:"intent_id,omitempty"`

	Tags []string   `firestore:"tags,omitempty"`
	Meta MemoryMeta `firestore:"meta"`

	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`

	// Score is populated by similarity search; not persisted.
	Score float64 `firestore:"-"`
}

// Embedded reports whether the memory holds a genuine completed embedding
// rather than a partial record.
func (m *Memory) Embedded() bool {
	return m != nil && len(m.Embedding) > 0 && m.EmbeddingModel != ""
}

// BuildSourceContext joins the non-empty scope fragments into the stored
// source_context string.
func BuildSourceContext(scope Scope, workspaceID, intentID string) string {
	var parts []string
	if scope != "" {
		parts = append(parts, "scope:"+string(scope))
	}
	if workspaceID != "" {
		parts = append(parts, "workspace:"+workspaceID)
	}
	if intentID != "" {
		parts = append(parts, "intent:"+intentID)
	}
	return strings.Join(parts, "|")
}
