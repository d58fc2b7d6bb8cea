package model

import (
	"time"

	"cloud.google.com/go/firestore"
)

// ToolSpec is one indexable item of the capability catalog.
type ToolSpec struct {
	ID             string `yaml:"id" json:"id"`
	DisplayName    string `yaml:"display_name" json:"display_name"`
	Description    string `yaml:"description" json:"description"`
	Category       string `yaml:"category,omitempty" json:"category,omitempty"`
	CapabilityCode string `yaml:"capability_code,omitempty" json:"capability_code,omitempty"`
}

// EmbeddingText returns the canonical text embedded for this tool.
func (s ToolSpec) EmbeddingText() string {
	return s.DisplayName + ": " + s.Description
}

// ToolEmbedding is a stored embedding of a catalog item, unique per
// (tool_id, embedding_model).
type ToolEmbedding struct {
	ToolID         string `firestore:"tool_id"`
	DisplayName    string `firestore:"display_name"`
	Description    string `firestore:"description"`
	Category       string `firestore:"category,omitempty"`
	CapabilityCode string `firestore:"capability_code,omitempty"`

	Embedding      firestore.Vector32 `firestore:"embedding"`
	EmbeddingModel string             `firestore:"embedding_model"`
	EmbeddingDim   int                `firestore:"embedding_dim"`

	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`

	// Score is populated by similarity search; not persisted.
	Score float64 `firestore:"-"`
}
