package services

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

// registerDoc creates a document row and returns its id.
func registerDoc(t *testing.T, e *env) string {
	t.Helper()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		Filename:    "upload.txt",
		BlobKey:     "uploads/upload.txt",
		ContentType: "text/plain",
		CreatedAt:   time.Now(),
	}
	require.NoError(t, e.docs.SaveDocument(context.Background(), doc))
	return doc.ID
}

func latestJob(t *testing.T, e *env, docID string) *domain.Job {
	t.Helper()
	job, err := e.jobs.LatestJob(context.Background(), docID)
	require.NoError(t, err)
	return job
}

func TestPipelineFiveThousandCharDocument(t *testing.T) {
	e := newEnv()
	docID := registerDoc(t, e)
	path := writeTempDoc(t, strings.Repeat("a", 5000))

	e.pipeline().process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Nil(t, job.Error)

	chunks, err := e.chunks.GetChunks(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// chunk_index values are exactly 0..N-1 in creation order.
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, c.Text)
		assert.NotEmpty(t, c.Checksum)
	}

	name := CollectionName(docID)
	exists, err := e.index.CollectionExists(context.Background(), name)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPipelinePerChunkEmbeddingFailureIsNonFatal(t *testing.T) {
	e := newEnv()
	// Chunk index 1 of 3 fails to embed.
	e.embedder.failCalls[1] = true
	docID := registerDoc(t, e)
	path := writeTempDoc(t, strings.Repeat("b", 5000))

	e.pipeline().process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobDone, job.Status)

	chunks, err := e.chunks.GetChunks(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// Marker rows are written regardless of embedding success.
	for _, c := range chunks {
		assert.Equal(t, 1, e.chunks.EmbeddingCount(c.ID))
	}

	// Exactly the two successful chunks became points.
	counter, ok := e.index.(interface{ PointCount(string) int })
	require.True(t, ok)
	assert.Equal(t, 2, counter.PointCount(CollectionName(docID)))
}

func TestPipelineVectorServiceDownIsDegradedNotFailed(t *testing.T) {
	e := newEnv()
	e.index = downIndex{}
	docID := registerDoc(t, e)
	path := writeTempDoc(t, strings.Repeat("c", 5000))

	e.pipeline().process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.Equal(t, 100, job.Progress)

	// Text rows survive without vector indexing.
	chunks, err := e.chunks.GetChunks(context.Background(), docID)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	// Retrieval on the unindexed document is an empty, non-fatal result.
	engine := NewRetrievalEngine(e.embedder, e.index, NewCollectionManager(e.index, WithEnsureBackoff(0)))
	results := engine.Retrieve(context.Background(), "anything", 3, docID)
	assert.Empty(t, results)
}

func TestPipelineEmptyDocumentCompletesDone(t *testing.T) {
	e := newEnv()
	docID := registerDoc(t, e)
	path := writeTempDoc(t, "   \n\t ")

	e.pipeline().process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.Equal(t, 100, job.Progress)

	chunks, err := e.chunks.GetChunks(context.Background(), docID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPipelineExtractionFailureFailsJob(t *testing.T) {
	e := newEnv()
	docID := registerDoc(t, e)
	// Point at a file that does not exist.
	path := writeTempDoc(t, "x")
	require.NoError(t, os.Remove(path))

	e.pipeline().process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.NotEmpty(t, *job.Error)
}

func TestPipelineBadChunkConfigFailsJob(t *testing.T) {
	e := newEnv()
	docID := registerDoc(t, e)
	path := writeTempDoc(t, "plenty of content here")

	e.pipeline(WithChunking(100, 100)).process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "chunking")
}

func TestPipelineRemovesTempFileOnEveryOutcome(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e := newEnv()
		docID := registerDoc(t, e)
		path := writeTempDoc(t, "hello world")

		e.pipeline().process(docID, path)

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("failure", func(t *testing.T) {
		e := newEnv()
		docID := registerDoc(t, e)
		path := writeTempDoc(t, "hello world")

		e.pipeline(WithChunking(0, 0)).process(docID, path)

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestPipelineRerunAppendsNewJobAndChunks(t *testing.T) {
	e := newEnv()
	docID := registerDoc(t, e)

	first := writeTempDoc(t, strings.Repeat("d", 5000))
	e.pipeline().process(docID, first)
	firstJob := latestJob(t, e, docID)

	second := writeTempDoc(t, strings.Repeat("d", 5000))
	e.pipeline().process(docID, second)
	secondJob := latestJob(t, e, docID)

	// A new job instance, and the earlier chunk rows still present.
	assert.NotEqual(t, firstJob.ID, secondJob.ID)
	assert.Equal(t, domain.JobDone, secondJob.Status)

	chunks, err := e.chunks.GetChunks(context.Background(), docID)
	require.NoError(t, err)
	assert.Len(t, chunks, 6)
}

func TestPipelineProgressNeverDecreases(t *testing.T) {
	e := newEnv()
	docID := registerDoc(t, e)
	// 60 chunks at size 100 / overlap 0 to cross several progress
	// buckets.
	path := writeTempDoc(t, strings.Repeat("e", 6000))

	e.pipeline(WithChunking(100, 0)).process(docID, path)

	job := latestJob(t, e, docID)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.Equal(t, 100, job.Progress)

	// Terminal jobs reject further writes.
	assert.NoError(t, e.jobs.UpdateProgress(context.Background(), job.ID, 10))
	refreshed := latestJob(t, e, docID)
	assert.Equal(t, 100, refreshed.Progress)
	assert.ErrorIs(t, e.jobs.MarkFailed(context.Background(), job.ID, "late"), domain.ErrIllegalTransition)
}
