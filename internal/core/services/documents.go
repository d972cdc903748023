package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driving"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// Ensure DocumentManager implements the interface.
var _ driving.DocumentService = (*DocumentManager)(nil)

// DocumentManager handles document registration, status resolution and
// cascading deletion across the relational store, the vector index and
// object storage.
type DocumentManager struct {
	docs    driven.DocumentStore
	chunks  driven.ChunkStore
	jobs    driven.JobStore
	vectors driven.VectorIndex
	blobs   driven.BlobStore
}

// NewDocumentManager creates a document manager. blobs may be nil.
func NewDocumentManager(
	docs driven.DocumentStore,
	chunks driven.ChunkStore,
	jobs driven.JobStore,
	vectors driven.VectorIndex,
	blobs driven.BlobStore,
) *DocumentManager {
	return &DocumentManager{
		docs:    docs,
		chunks:  chunks,
		jobs:    jobs,
		vectors: vectors,
		blobs:   blobs,
	}
}

// Register creates the document row for an upload.
func (m *DocumentManager) Register(ctx context.Context, filename, blobKey, contentType string) (*domain.Document, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	doc := &domain.Document{
		ID:          uuid.New().String(),
		Filename:    filename,
		BlobKey:     blobKey,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}
	if err := m.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	logger.Info("registered document %s (%s)", doc.ID, filename)
	return doc, nil
}

// Get returns a document by id.
func (m *DocumentManager) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return m.docs.GetDocument(ctx, documentID)
}

// List returns all documents, newest first.
func (m *DocumentManager) List(ctx context.Context) ([]domain.Document, error) {
	return m.docs.ListDocuments(ctx)
}

// Status resolves the document's displayed status. The latest job by
// creation time is authoritative; a document with no jobs reports the
// synthetic uploaded status, which callers must distinguish from
// failed.
func (m *DocumentManager) Status(ctx context.Context, documentID string) (*driving.JobStatusInfo, error) {
	if _, err := m.docs.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	job, err := m.jobs.LatestJob(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return &driving.JobStatusInfo{Status: domain.StatusUploaded}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving latest job: %w", err)
	}

	return &driving.JobStatusInfo{
		Status:   string(job.Status),
		Progress: job.Progress,
		Error:    job.Error,
	}, nil
}

// Delete removes all of a document's resources. Vector and blob
// deletion are best-effort; their failures are logged and never block
// the relational delete, which cascades to chunks, embeddings and jobs.
func (m *DocumentManager) Delete(ctx context.Context, documentID string) error {
	doc, err := m.docs.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	name := CollectionName(documentID)
	if err := m.vectors.DeleteCollection(ctx, name); err != nil {
		logger.Warn("deleting collection %s: %v", name, err)
		// Fall back to deleting individual points by chunk id; point id
		// equals chunk id, so no lookup table is needed.
		if ids, cerr := m.chunks.ChunkIDs(ctx, documentID); cerr != nil {
			logger.Warn("listing chunk ids for %s: %v", documentID, cerr)
		} else if len(ids) > 0 {
			if derr := m.vectors.DeletePoints(ctx, name, ids); derr != nil {
				logger.Warn("deleting %d points from %s: %v", len(ids), name, derr)
			}
		}
	}

	if m.blobs != nil && doc.BlobKey != "" {
		if err := m.blobs.Delete(ctx, doc.BlobKey); err != nil {
			logger.Warn("deleting blob %s: %v", doc.BlobKey, err)
		}
	}

	if err := m.docs.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("deleting document rows: %w", err)
	}
	logger.Info("deleted document %s", documentID)
	return nil
}
