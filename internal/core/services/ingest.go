package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/queryhub-labs/queryhub/internal/chunker"
	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driving"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// Ensure IngestionPipeline implements the interface.
var _ driving.IngestionService = (*IngestionPipeline)(nil)

// progressEvery is the chunk interval between progress writes. Coarse
// granularity bounds write volume on large documents.
const progressEvery = 10

// progressCeiling caps progress during chunk processing; the remaining
// headroom covers upsert and archiving, and 100 is written only with
// the transition to done.
const progressCeiling = 90

// DefaultCallTimeout bounds each external call (embedding, upsert,
// blob put) so a single slow collaborator cannot hang a run.
const DefaultCallTimeout = 30 * time.Second

// TextExtraction is the pipeline's extraction entry point.
// *extractors.Registry satisfies it.
type TextExtraction interface {
	Extract(ctx context.Context, path string) (string, error)
}

// IngestionPipeline turns an uploaded file into persisted chunks and
// vector points, tracking each run through a job row. Each upload runs
// on its own goroutine; documents are independent, so concurrent runs
// need no coordination, and within one run chunk processing is strictly
// sequential to keep chunk_index dense and progress monotonic.
type IngestionPipeline struct {
	docs        driven.DocumentStore
	chunks      driven.ChunkStore
	jobs        driven.JobStore
	extractor   TextExtraction
	embedder    driven.EmbeddingService
	vectors     driven.VectorIndex
	collections *CollectionManager
	blobs       driven.BlobStore

	chunkSize    int
	chunkOverlap int
	callTimeout  time.Duration
}

// PipelineOption configures an IngestionPipeline.
type PipelineOption func(*IngestionPipeline)

// WithChunking sets the chunk size and overlap.
func WithChunking(size, overlap int) PipelineOption {
	return func(p *IngestionPipeline) {
		p.chunkSize = size
		p.chunkOverlap = overlap
	}
}

// WithCallTimeout sets the per-external-call timeout.
func WithCallTimeout(d time.Duration) PipelineOption {
	return func(p *IngestionPipeline) {
		if d > 0 {
			p.callTimeout = d
		}
	}
}

// NewIngestionPipeline creates the pipeline. blobs may be nil, which
// disables source archiving; everything else is required.
func NewIngestionPipeline(
	docs driven.DocumentStore,
	chunks driven.ChunkStore,
	jobs driven.JobStore,
	extractor TextExtraction,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	collections *CollectionManager,
	blobs driven.BlobStore,
	opts ...PipelineOption,
) *IngestionPipeline {
	p := &IngestionPipeline{
		docs:         docs,
		chunks:       chunks,
		jobs:         jobs,
		extractor:    extractor,
		embedder:     embedder,
		vectors:      vectors,
		collections:  collections,
		blobs:        blobs,
		chunkSize:    chunker.DefaultSize,
		chunkOverlap: chunker.DefaultOverlap,
		callTimeout:  DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins ingesting localPath for the document in the background
// and returns immediately. Outcomes are observable only through the
// document's job rows.
func (p *IngestionPipeline) Start(documentID, localPath string) {
	go p.process(documentID, localPath)
}

// process is the background body of one ingestion run.
func (p *IngestionPipeline) process(documentID, localPath string) {
	// The temp file is released on every exit path, success or failure.
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("removing temp file %s: %v", localPath, err)
		}
	}()

	ctx := context.Background()

	job := &domain.Job{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Status:     domain.JobProcessing,
		CreatedAt:  time.Now(),
	}
	if err := p.jobs.CreateJob(ctx, job); err != nil {
		// No job row means the failure is unobservable to pollers; they
		// will see the document as uploaded/not-yet-started.
		logger.Error("creating job for document %s: %v", documentID, err)
		return
	}
	logger.Info("processing document %s (job %s)", documentID, job.ID)

	// A panic on this goroutine would otherwise kill the process and
	// strand the job in processing forever.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ingestion of document %s panicked: %v", documentID, r)
			if ferr := p.jobs.MarkFailed(ctx, job.ID, fmt.Sprintf("internal error: %v", r)); ferr != nil {
				logger.Error("recording panic for job %s: %v", job.ID, ferr)
			}
		}
	}()

	if err := p.run(ctx, job, documentID, localPath); err != nil {
		logger.Error("ingestion of document %s failed: %v", documentID, err)
		if ferr := p.jobs.MarkFailed(ctx, job.ID, err.Error()); ferr != nil {
			logger.Error("recording failure for job %s: %v", job.ID, ferr)
		}
	}
}

// run executes the pipeline steps. A returned error fails the job; the
// recoverable steps (per-chunk embedding, collection ensure/upsert,
// archiving) swallow and log their own failures.
func (p *IngestionPipeline) run(ctx context.Context, job *domain.Job, documentID, localPath string) error {
	text, err := p.extractor.Extract(ctx, localPath)
	if err != nil {
		return err
	}

	texts, err := chunker.Split(text, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return err
	}
	logger.Info("extracted %d chunks from %s", len(texts), localPath)

	// A document yielding zero chunks is a valid terminal state.
	staged, err := p.processChunks(ctx, job, documentID, texts)
	if err != nil {
		return err
	}

	if len(staged) > 0 {
		p.indexVectors(ctx, documentID, staged)
	}

	p.archive(ctx, documentID, localPath)

	if err := p.jobs.MarkDone(ctx, job.ID); err != nil {
		return fmt.Errorf("finalising job: %w", err)
	}
	logger.Info("document %s processed (job %s done)", documentID, job.ID)
	return nil
}

// processChunks persists chunk and embedding-marker rows in index
// order and stages vector points for the chunks that embedded
// successfully. Per-chunk embedding failures are logged and skipped,
// not retried: losing semantic search on one chunk must not abort the
// rest of the document.
func (p *IngestionPipeline) processChunks(
	ctx context.Context, job *domain.Job, documentID string, texts []string,
) ([]driven.VectorPoint, error) {
	total := len(texts)
	staged := make([]driven.VectorPoint, 0, total)

	for idx, text := range texts {
		if idx%progressEvery == 0 || idx == total-1 {
			progress := (idx + 1) * progressCeiling / total
			if err := p.jobs.UpdateProgress(ctx, job.ID, progress); err != nil {
				logger.Warn("updating progress for job %s: %v", job.ID, err)
			} else {
				logger.Debug("progress %d%% (%d/%d chunks)", progress, idx+1, total)
			}
		}

		chunk := &domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      idx,
			Text:       text,
			TokenCount: utf8.RuneCountInString(text),
			Checksum:   checksum(text),
			CreatedAt:  time.Now(),
		}
		if err := p.chunks.SaveChunk(ctx, chunk); err != nil {
			return nil, fmt.Errorf("saving chunk %d: %w", idx, err)
		}

		vector, err := p.embed(ctx, text)
		if err != nil {
			logger.Warn("embedding chunk %d of document %s: %v", idx, documentID, err)
		} else {
			staged = append(staged, driven.VectorPoint{
				ID:     chunk.ID,
				Vector: vector,
				Payload: domain.ChunkPayload{
					DocumentID: documentID,
					ChunkIndex: idx,
					ChunkText:  text,
				},
			})
		}

		// The marker row is written whether or not embedding succeeded.
		marker := &domain.Embedding{
			ID:           uuid.New().String(),
			ChunkID:      chunk.ID,
			IndexVersion: 1,
			CreatedAt:    time.Now(),
		}
		if err := p.chunks.SaveEmbedding(ctx, marker); err != nil {
			return nil, fmt.Errorf("saving embedding marker for chunk %d: %w", idx, err)
		}
	}

	return staged, nil
}

// embed runs one embedding call under the per-call timeout. A timeout
// is treated identically to any other embedding failure.
func (p *IngestionPipeline) embed(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return p.embedder.Embed(callCtx, text)
}

// indexVectors ensures the document's collection and upserts all
// staged points in one batch. Failures here are logged but never fail
// the job: the chunks remain queryable in the relational store even
// without vector indexing.
func (p *IngestionPipeline) indexVectors(ctx context.Context, documentID string, staged []driven.VectorPoint) {
	name := CollectionName(documentID)

	if err := p.collections.Ensure(ctx, name, len(staged[0].Vector)); err != nil {
		logger.Warn("vector indexing skipped for document %s: %v", documentID, err)
		logger.Warn("chunks stored in database but not indexed for search")
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	if err := p.vectors.Upsert(callCtx, name, staged); err != nil {
		logger.Warn("upserting %d points into %s: %v", len(staged), name, err)
		logger.Warn("chunks stored in database but not indexed for search")
		return
	}
	logger.Info("upserted %d points into %s", len(staged), name)
}

// archive copies the source file into object storage, best effort.
func (p *IngestionPipeline) archive(ctx context.Context, documentID, localPath string) {
	if p.blobs == nil {
		return
	}
	doc, err := p.docs.GetDocument(ctx, documentID)
	if err != nil {
		logger.Warn("archiving document %s: %v", documentID, err)
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	if err := p.blobs.PutFile(callCtx, doc.BlobKey, localPath, doc.ContentType); err != nil {
		logger.Warn("archiving document %s to %s: %v", documentID, doc.BlobKey, err)
	}
}

// checksum returns the SHA-256 hex digest of text.
func checksum(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
