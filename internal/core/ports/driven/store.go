package driven

import (
	"context"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

// DocumentStore persists document metadata.
type DocumentStore interface {
	// SaveDocument stores a new document row.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document. The relational schema cascades
	// the delete to its chunks, embeddings and jobs.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkStore persists chunks and their embedding marker rows.
type ChunkStore interface {
	// SaveChunk stores one chunk row.
	SaveChunk(ctx context.Context, chunk *domain.Chunk) error

	// SaveEmbedding stores one embedding marker row.
	SaveEmbedding(ctx context.Context, emb *domain.Embedding) error

	// GetChunks returns all chunks for a document in creation order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ChunkIDs returns the ids of all chunks for a document. Used for
	// per-point vector deletion when whole-collection deletion fails.
	ChunkIDs(ctx context.Context, documentID string) ([]string, error)
}

// JobStore persists ingestion jobs and enforces the state machine at
// the write boundary: progress writes are monotonic and only land while
// the job is processing, terminal transitions happen at most once, and
// a failure write never clobbers an already-terminal row.
type JobStore interface {
	// CreateJob inserts a new job in the given status.
	CreateJob(ctx context.Context, job *domain.Job) error

	// UpdateProgress raises the job's progress while it is processing.
	// Writes that would lower progress or touch a non-processing job
	// are silently dropped.
	UpdateProgress(ctx context.Context, jobID string, progress int) error

	// MarkDone transitions a processing job to done with progress 100.
	// Returns domain.ErrIllegalTransition if the job is not processing.
	MarkDone(ctx context.Context, jobID string) error

	// MarkFailed transitions a processing job to failed with the given
	// human-readable cause.
	// Returns domain.ErrIllegalTransition if the job is not processing.
	MarkFailed(ctx context.Context, jobID string, cause string) error

	// LatestJob returns the most recent job for a document by creation
	// time. Returns domain.ErrNotFound when the document has no jobs.
	LatestJob(ctx context.Context, documentID string) (*domain.Job, error)
}
