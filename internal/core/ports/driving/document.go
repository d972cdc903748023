package driving

import (
	"context"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

// JobStatusInfo is the status snapshot reported to polling callers.
type JobStatusInfo struct {
	// Status is a job state, or domain.StatusUploaded when the
	// document exists but ingestion has not started.
	Status string `json:"status"`

	// Progress is the latest job's progress, 0 when no job exists.
	Progress int `json:"progress"`

	// Error is the failure cause when Status is failed.
	Error *string `json:"error,omitempty"`
}

// DocumentService manages document records and their derived resources.
type DocumentService interface {
	// Register creates the document row for an upload.
	Register(ctx context.Context, filename, blobKey, contentType string) (*domain.Document, error)

	// Get returns a document by id.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Status resolves the document's displayed status from its most
	// recent job. Returns domain.ErrNotFound for unknown documents.
	Status(ctx context.Context, documentID string) (*JobStatusInfo, error)

	// Delete removes the document's vector collection (falling back to
	// per-point deletion), its blob, and its relational rows. Vector
	// and blob failures never block the relational delete.
	Delete(ctx context.Context, documentID string) error
}
