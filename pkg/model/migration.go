package model

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingTarget identifies one embedding backend: the exact model name plus
// the provider that serves it.
type EmbeddingTarget struct {
	Model    string `firestore:"model" json:"model"`
	Provider string `firestore:"provider" json:"provider"`
}

func (t EmbeddingTarget) String() string {
	return t.Provider + "/" + t.Model
}

// ModelUsage is the aggregate footprint of one embedding model across stored
// memories.
type ModelUsage struct {
	Model     string
	Count     int64
	FirstUsed time.Time
	LastUsed  time.Time
}

type MigrationJobID string

// NewMigrationJobID generates a new unique MigrationJobID
func NewMigrationJobID() MigrationJobID {
	return MigrationJobID(uuid.New().String())
}

type MigrationJobStatus string

const (
	MigrationPending   MigrationJobStatus = "pending"
	MigrationActive    MigrationJobStatus = "active"
	MigrationCompleted MigrationJobStatus = "completed"
	MigrationFailed    MigrationJobStatus = "failed"
)

// MigrationJob is a re-embedding job tracked by the external migration runner.
// The engine only reads these to avoid recommending work already in flight.
type MigrationJob struct {
	ID        MigrationJobID     `firestore:"id"`
	From      EmbeddingTarget    `firestore:"from"`
	To        EmbeddingTarget    `firestore:"to"`
	Status    MigrationJobStatus `firestore:"status"`
	CreatedAt time.Time          `firestore:"created_at"`
	UpdatedAt time.Time          `firestore:"updated_at"`
}

// Covers reports whether the job targets the given model pair.
func (j *MigrationJob) Covers(from, to EmbeddingTarget) bool {
	return j != nil && j.From == from && j.To == to
}

// Active reports whether the job is still pending or running.
func (j *MigrationJob) Active() bool {
	return j != nil && (j.Status == MigrationPending || j.Status == MigrationActive)
}

// MigrationAssessment is a computed, non-persisted comparison of embedding
// coverage between a previous and a new model/provider pair.
type MigrationAssessment struct {
	Previous EmbeddingTarget `json:"previous"`
	Next     EmbeddingTarget `json:"next"`

	PreviousUsage ModelUsage `json:"previous_usage"`
	NextUsage     ModelUsage `json:"next_usage"`

	NeedsMigration     bool   `json:"needs_migration"`
	HasActiveMigration bool   `json:"has_active_migration"`
	Recommendation     string `json:"recommendation"`

	// Degraded is set when usage statistics could not be queried and the
	// assessment is advisory only.
	Degraded bool `json:"degraded,omitempty"`
}
