package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

func newJob(id, docID string, createdAt time.Time) *domain.Job {
	return &domain.Job{
		ID:         id,
		DocumentID: docID,
		Status:     domain.JobProcessing,
		CreatedAt:  createdAt,
	}
}

func TestJobProgressGuards(t *testing.T) {
	s := NewJobStore()
	ctx := context.Background()
	require.NoError(t, s.CreateJob(ctx, newJob("j1", "d1", time.Now())))

	require.NoError(t, s.UpdateProgress(ctx, "j1", 45))
	job, _ := s.Job("j1")
	assert.Equal(t, 45, job.Progress)

	// A lower write is silently dropped.
	require.NoError(t, s.UpdateProgress(ctx, "j1", 10))
	job, _ = s.Job("j1")
	assert.Equal(t, 45, job.Progress)

	// Values above 100 are clamped.
	require.NoError(t, s.UpdateProgress(ctx, "j1", 150))
	job, _ = s.Job("j1")
	assert.Equal(t, 100, job.Progress)

	assert.ErrorIs(t, s.UpdateProgress(ctx, "missing", 10), domain.ErrNotFound)
}

func TestJobTerminalTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("done is final", func(t *testing.T) {
		s := NewJobStore()
		require.NoError(t, s.CreateJob(ctx, newJob("j1", "d1", time.Now())))
		require.NoError(t, s.MarkDone(ctx, "j1"))

		job, _ := s.Job("j1")
		assert.Equal(t, domain.JobDone, job.Status)
		assert.Equal(t, 100, job.Progress)

		assert.ErrorIs(t, s.MarkFailed(ctx, "j1", "late failure"), domain.ErrIllegalTransition)
		assert.ErrorIs(t, s.MarkDone(ctx, "j1"), domain.ErrIllegalTransition)
		require.NoError(t, s.UpdateProgress(ctx, "j1", 10))
		job, _ = s.Job("j1")
		assert.Equal(t, 100, job.Progress)
	})

	t.Run("failed is final and keeps cause", func(t *testing.T) {
		s := NewJobStore()
		require.NoError(t, s.CreateJob(ctx, newJob("j1", "d1", time.Now())))
		require.NoError(t, s.MarkFailed(ctx, "j1", "extraction failed"))

		job, _ := s.Job("j1")
		assert.Equal(t, domain.JobFailed, job.Status)
		require.NotNil(t, job.Error)
		assert.Equal(t, "extraction failed", *job.Error)

		assert.ErrorIs(t, s.MarkDone(ctx, "j1"), domain.ErrIllegalTransition)
	})
}

func TestLatestJobPicksNewest(t *testing.T) {
	s := NewJobStore()
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, s.CreateJob(ctx, newJob("j1", "d1", base)))
	require.NoError(t, s.CreateJob(ctx, newJob("j2", "d1", base.Add(time.Second))))
	require.NoError(t, s.CreateJob(ctx, newJob("other", "d2", base.Add(time.Hour))))

	job, err := s.LatestJob(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "j2", job.ID)

	_, err = s.LatestJob(ctx, "d3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentDeleteCascades(t *testing.T) {
	ctx := context.Background()
	chunks := NewChunkStore()
	jobs := NewJobStore()
	docs := NewDocumentStore(chunks, jobs)

	doc := &domain.Document{ID: "d1", Filename: "a.txt", CreatedAt: time.Now()}
	require.NoError(t, docs.SaveDocument(ctx, doc))
	assert.ErrorIs(t, docs.SaveDocument(ctx, doc), domain.ErrAlreadyExists)

	require.NoError(t, chunks.SaveChunk(ctx, &domain.Chunk{ID: "c1", DocumentID: "d1", Text: "x"}))
	require.NoError(t, chunks.SaveEmbedding(ctx, &domain.Embedding{ID: "e1", ChunkID: "c1"}))
	require.NoError(t, jobs.CreateJob(ctx, newJob("j1", "d1", time.Now())))

	require.NoError(t, docs.DeleteDocument(ctx, "d1"))

	_, err := docs.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := chunks.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, chunks.EmbeddingCount("c1"))
	_, err = jobs.LatestJob(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
