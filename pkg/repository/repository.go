package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/burrow/pkg/model"
)

// Repository defines the interface for memory and corpus persistence
type Repository interface {
	// PutMemory saves a memory. When a memory for the same source event
	// already exists, it returns model.ErrMemoryExists with the existing
	// record ID attached.
	PutMemory(ctx context.Context, memory *model.Memory) error

	// GetMemory retrieves a memory by ID
	GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error)

	// GetMemoryBySource resolves the source pointer for an event. Returns
	// (nil, nil) when no memory exists for the source.
	GetMemoryBySource(ctx context.Context, sourceID model.EventID) (*model.Memory, error)

	// LinkSource maps an additional source event onto an existing memory.
	// Used by content-hash reuse so later lookups by the new source resolve
	// to the shared record. Linking an already linked source is a no-op.
	LinkSource(ctx context.Context, sourceID model.EventID, memoryID model.MemoryID) error

	// QueryMemoryBySource finds a memory by source ID with a plain query,
	// bypassing the pointer documents
	QueryMemoryBySource(ctx context.Context, sourceID model.EventID) (*model.Memory, error)

	// FindMemoryByFileHash returns the most recent completed memory for a
	// file content hash, or (nil, nil) when none exists
	FindMemoryByFileHash(ctx context.Context, fileHash string) (*model.Memory, error)

	// SearchMemories performs vector search over memories embedded with the
	// given model, most similar first, with Score populated
	SearchMemories(ctx context.Context, embedding firestore.Vector32, embeddingModel string, limit int) ([]*model.Memory, error)

	// PutToolEmbedding upserts a tool embedding keyed by (tool_id, embedding_model)
	PutToolEmbedding(ctx context.Context, tool *model.ToolEmbedding) error

	// GetToolEmbedding retrieves one tool embedding, or (nil, nil) when absent
	GetToolEmbedding(ctx context.Context, toolID, embeddingModel string) (*model.ToolEmbedding, error)

	// CountToolEmbeddings counts tool embeddings stored for the given model
	CountToolEmbeddings(ctx context.Context, embeddingModel string) (int64, error)

	// SearchToolEmbeddings performs vector search over tool embeddings for
	// the given model, most similar first, with Score populated
	SearchToolEmbeddings(ctx context.Context, embedding firestore.Vector32, embeddingModel string, limit int) ([]*model.ToolEmbedding, error)

	// DeleteToolEmbeddings removes all embeddings of one tool across models
	DeleteToolEmbeddings(ctx context.Context, toolID string) (int, error)

	// DeleteToolEmbeddingsByCapability removes embeddings of every tool
	// carrying the capability code
	DeleteToolEmbeddingsByCapability(ctx context.Context, capabilityCode string) (int, error)

	// DeleteToolEmbeddingsByModel removes all embeddings stored for a model
	DeleteToolEmbeddingsByModel(ctx context.Context, embeddingModel string) (int, error)

	// PutMigrationJob saves a re-embedding job record
	PutMigrationJob(ctx context.Context, job *model.MigrationJob) error

	// ListMigrationJobs retrieves migration jobs, optionally filtered by status
	ListMigrationJobs(ctx context.Context, statuses ...model.MigrationJobStatus) ([]*model.MigrationJob, error)
}
