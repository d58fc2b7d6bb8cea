package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/burrow/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collectionMemories       = "memories"
	collectionMemorySources  = "memory_sources"
	collectionToolEmbeddings = "tool_embeddings"
	collectionMigrationJobs  = "migration_jobs"

	distanceField = "vector_distance"
)

// Firestore implements Repository using Firestore
type Firestore struct {
	client *firestore.Client
}

// New creates a new Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.Value("project", projectID),
			goerr.Value("database", databaseID),
		)
	}

	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (x *Firestore) Close() error {
	return x.client.Close()
}

// sourcePointer maps a source event to its memory. Created transactionally
// with the memory document so concurrent ingestion of the same event cannot
// produce two records.
type sourcePointer struct {
	MemoryID  model.MemoryID `firestore:"memory_id"`
	CreatedAt time.Time      `firestore:"created_at"`
}

func (x *Firestore) PutMemory(ctx context.Context, memory *model.Memory) error {
	now := time.Now()
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = now
	}
	memory.UpdatedAt = now

	srcRef := x.client.Collection(collectionMemorySources).Doc(string(memory.SourceID))
	memRef := x.client.Collection(collectionMemories).Doc(string(memory.ID))

	err := x.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(srcRef, sourcePointer{
			MemoryID:  memory.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.Set(memRef, memory)
	})
	if err == nil {
		return nil
	}

	if status.Code(err) == codes.AlreadyExists {
		existing, gerr := x.GetMemoryBySource(ctx, memory.SourceID)
		if gerr == nil && existing != nil {
			return goerr.Wrap(model.ErrMemoryExists, "source already ingested",
				goerr.Value("source_id", memory.SourceID),
				goerr.Value("memory_id", existing.ID),
			)
		}
		return goerr.Wrap(model.ErrMemoryExists, "source already ingested",
			goerr.Value("source_id", memory.SourceID),
		)
	}

	return goerr.Wrap(err, "failed to put memory", goerr.Value("memory_id", memory.ID))
}

func (x *Firestore) GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	doc, err := x.client.Collection(collectionMemories).Doc(string(id)).Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory", goerr.Value("memory_id", id))
	}

	var memory model.Memory
	if err := doc.DataTo(&memory); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.Value("memory_id", id))
	}

	return &memory, nil
}

func (x *Firestore) GetMemoryBySource(ctx context.Context, sourceID model.EventID) (*model.Memory, error) {
	doc, err := x.client.Collection(collectionMemorySources).Doc(string(sourceID)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get source pointer", goerr.Value("source_id", sourceID))
	}

	var ptr sourcePointer
	if err := doc.DataTo(&ptr); err != nil {
		return nil, goerr.Wrap(err, "failed to decode source pointer", goerr.Value("source_id", sourceID))
	}

	return x.GetMemory(ctx, ptr.MemoryID)
}

func (x *Firestore) LinkSource(ctx context.Context, sourceID model.EventID, memoryID model.MemoryID) error {
	ref := x.client.Collection(collectionMemorySources).Doc(string(sourceID))
	_, err := ref.Create(ctx, sourcePointer{
		MemoryID:  memoryID,
		CreatedAt: time.Now(),
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return goerr.Wrap(err, "failed to link source",
			goerr.Value("source_id", sourceID),
			goerr.Value("memory_id", memoryID),
		)
	}
	return nil
}

func (x *Firestore) QueryMemoryBySource(ctx context.Context, sourceID model.EventID) (*model.Memory, error) {
	it := x.client.Collection(collectionMemories).
		Where("source_id", "==", string(sourceID)).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query memory by source", goerr.Value("source_id", sourceID))
	}

	var memory model.Memory
	if err := doc.DataTo(&memory); err != nil {
		return nil, goerr.Wrap(err, "failed to decode memory", goerr.Value("source_id", sourceID))
	}

	return &memory, nil
}

func (x *Firestore) FindMemoryByFileHash(ctx context.Context, fileHash string) (*model.Memory, error) {
	it := x.client.Collection(collectionMemories).
		Where("meta.file_hash", "==", fileHash).
		OrderBy("created_at", firestore.Desc).
		Limit(5).
		Documents(ctx)
	defer it.Stop()

	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return nil, nil
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query memory by file hash", goerr.Value("file_hash", fileHash))
		}

		var memory model.Memory
		if err := doc.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory", goerr.Value("file_hash", fileHash))
		}
		if memory.Embedded() {
			return &memory, nil
		}
	}
}

func (x *Firestore) SearchMemories(ctx context.Context, embedding firestore.Vector32, embeddingModel string, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		limit = 10
	}

	vq := x.client.Collection(collectionMemories).
		Where("embedding_model", "==", embeddingModel).
		FindNearest("embedding", embedding, limit, firestore.DistanceMeasureCosine, &firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		})

	it := vq.Documents(ctx)
	defer it.Stop()

	var memories []*model.Memory
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search memories", goerr.Value("model", embeddingModel))
		}

		var memory model.Memory
		if err := doc.DataTo(&memory); err != nil {
			return nil, goerr.Wrap(err, "failed to decode memory")
		}
		memory.Score = similarityOf(doc)
		memories = append(memories, &memory)
	}

	return memories, nil
}

// similarityOf converts the cosine distance attached by FindNearest into a
// similarity in [0, 1].
func similarityOf(doc *firestore.DocumentSnapshot) float64 {
	if v, ok := doc.Data()[distanceField].(float64); ok {
		return 1 - v
	}
	return 0
}

// toolDocID builds the document ID enforcing (tool_id, embedding_model)
// uniqueness. Model names may contain characters invalid in document IDs.
func toolDocID(toolID, embeddingModel string) string {
	r := strings.NewReplacer("/", "-", ":", "-")
	return toolID + "__" + r.Replace(embeddingModel)
}

func (x *Firestore) PutToolEmbedding(ctx context.Context, tool *model.ToolEmbedding) error {
	now := time.Now()
	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = now
	}
	tool.UpdatedAt = now

	ref := x.client.Collection(collectionToolEmbeddings).Doc(toolDocID(tool.ToolID, tool.EmbeddingModel))
	if _, err := ref.Set(ctx, tool); err != nil {
		return goerr.Wrap(err, "failed to put tool embedding",
			goerr.Value("tool_id", tool.ToolID),
			goerr.Value("model", tool.EmbeddingModel),
		)
	}

	return nil
}

func (x *Firestore) GetToolEmbedding(ctx context.Context, toolID, embeddingModel string) (*model.ToolEmbedding, error) {
	doc, err := x.client.Collection(collectionToolEmbeddings).Doc(toolDocID(toolID, embeddingModel)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get tool embedding", goerr.Value("tool_id", toolID))
	}

	var tool model.ToolEmbedding
	if err := doc.DataTo(&tool); err != nil {
		return nil, goerr.Wrap(err, "failed to decode tool embedding", goerr.Value("tool_id", toolID))
	}

	return &tool, nil
}

func (x *Firestore) CountToolEmbeddings(ctx context.Context, embeddingModel string) (int64, error) {
	q := x.client.Collection(collectionToolEmbeddings).Where("embedding_model", "==", embeddingModel)

	result, err := q.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count tool embeddings", goerr.Value("model", embeddingModel))
	}

	v, ok := result["count"]
	if !ok {
		return 0, goerr.New("count missing from aggregation result")
	}
	count, ok := v.(*firestorepb.Value)
	if !ok {
		return 0, goerr.New("unexpected aggregation result type")
	}

	return count.GetIntegerValue(), nil
}

func (x *Firestore) SearchToolEmbeddings(ctx context.Context, embedding firestore.Vector32, embeddingModel string, limit int) ([]*model.ToolEmbedding, error) {
	if limit <= 0 {
		limit = 10
	}

	vq := x.client.Collection(collectionToolEmbeddings).
		Where("embedding_model", "==", embeddingModel).
		FindNearest("embedding", embedding, limit, firestore.DistanceMeasureCosine, &firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		})

	it := vq.Documents(ctx)
	defer it.Stop()

	var tools []*model.ToolEmbedding
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search tool embeddings", goerr.Value("model", embeddingModel))
		}

		var tool model.ToolEmbedding
		if err := doc.DataTo(&tool); err != nil {
			return nil, goerr.Wrap(err, "failed to decode tool embedding")
		}
		tool.Score = similarityOf(doc)
		tools = append(tools, &tool)
	}

	return tools, nil
}

func (x *Firestore) DeleteToolEmbeddings(ctx context.Context, toolID string) (int, error) {
	q := x.client.Collection(collectionToolEmbeddings).Where("tool_id", "==", toolID)
	return x.deleteByQuery(ctx, q)
}

func (x *Firestore) DeleteToolEmbeddingsByCapability(ctx context.Context, capabilityCode string) (int, error) {
	q := x.client.Collection(collectionToolEmbeddings).Where("capability_code", "==", capabilityCode)
	return x.deleteByQuery(ctx, q)
}

func (x *Firestore) DeleteToolEmbeddingsByModel(ctx context.Context, embeddingModel string) (int, error) {
	q := x.client.Collection(collectionToolEmbeddings).Where("embedding_model", "==", embeddingModel)
	return x.deleteByQuery(ctx, q)
}

func (x *Firestore) deleteByQuery(ctx context.Context, q firestore.Query) (int, error) {
	bw := x.client.BulkWriter(ctx)
	defer bw.End()

	it := q.Documents(ctx)
	defer it.Stop()

	count := 0
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return count, goerr.Wrap(err, "failed to iterate documents for delete")
		}

		if _, err := bw.Delete(doc.Ref); err != nil {
			return count, goerr.Wrap(err, "failed to schedule delete", goerr.Value("doc", doc.Ref.ID))
		}
		count++
	}

	bw.Flush()
	return count, nil
}

func (x *Firestore) PutMigrationJob(ctx context.Context, job *model.MigrationJob) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	ref := x.client.Collection(collectionMigrationJobs).Doc(string(job.ID))
	if _, err := ref.Set(ctx, job); err != nil {
		return goerr.Wrap(err, "failed to put migration job", goerr.Value("job_id", job.ID))
	}

	return nil
}

func (x *Firestore) ListMigrationJobs(ctx context.Context, statuses ...model.MigrationJobStatus) ([]*model.MigrationJob, error) {
	q := x.client.Collection(collectionMigrationJobs).Query
	if len(statuses) > 0 {
		values := make([]string, 0, len(statuses))
		for _, s := range statuses {
			values = append(values, string(s))
		}
		q = q.Where("status", "in", values)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var jobs []*model.MigrationJob
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list migration jobs")
		}

		var job model.MigrationJob
		if err := doc.DataTo(&job); err != nil {
			return nil, goerr.Wrap(err, "failed to decode migration job")
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}
