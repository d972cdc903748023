package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

func point(id string, vector ...float32) driven.VectorPoint {
	return driven.VectorPoint{
		ID:     id,
		Vector: vector,
		Payload: domain.ChunkPayload{
			DocumentID: "doc",
			ChunkText:  id,
		},
	}
}

func TestCollectionLifecycle(t *testing.T) {
	ix := NewIndex()
	ctx := context.Background()

	exists, err := ix.CollectionExists(ctx, "doc-a")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ix.CreateCollection(ctx, "doc-a", 3))
	assert.ErrorIs(t, ix.CreateCollection(ctx, "doc-a", 3), domain.ErrAlreadyExists)

	exists, err = ix.CollectionExists(ctx, "doc-a")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, ix.DeleteCollection(ctx, "doc-a"))
	assert.ErrorIs(t, ix.DeleteCollection(ctx, "doc-a"), domain.ErrNotFound)
}

func TestCreateCollectionRejectsBadDimension(t *testing.T) {
	ix := NewIndex()
	assert.ErrorIs(t, ix.CreateCollection(context.Background(), "doc-a", 0), domain.ErrInvalidInput)
}

func TestUpsertEnforcesDimension(t *testing.T) {
	ix := NewIndex()
	ctx := context.Background()
	require.NoError(t, ix.CreateCollection(ctx, "doc-a", 3))

	err := ix.Upsert(ctx, "doc-a", []driven.VectorPoint{point("p1", 1, 2)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, ix.Upsert(ctx, "doc-a", []driven.VectorPoint{point("p1", 1, 2, 3)}))
	assert.Equal(t, 1, ix.PointCount("doc-a"))

	// Same id overwrites, not duplicates.
	require.NoError(t, ix.Upsert(ctx, "doc-a", []driven.VectorPoint{point("p1", 3, 2, 1)}))
	assert.Equal(t, 1, ix.PointCount("doc-a"))
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ix := NewIndex()
	ctx := context.Background()
	require.NoError(t, ix.CreateCollection(ctx, "doc-a", 2))
	require.NoError(t, ix.Upsert(ctx, "doc-a", []driven.VectorPoint{
		point("east", 1, 0),
		point("north", 0, 1),
		point("northeast", 1, 1),
	}))

	hits, err := ix.Search(ctx, "doc-a", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "east", hits[0].ID)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
	assert.Equal(t, "northeast", hits[1].ID)
	assert.Equal(t, "north", hits[2].ID)
	assert.InDelta(t, 0.0, float64(hits[2].Score), 1e-6)

	// k bounds the result.
	hits, err = ix.Search(ctx, "doc-a", []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSearchMissingCollection(t *testing.T) {
	ix := NewIndex()
	_, err := ix.Search(context.Background(), "doc-missing", []float32{1}, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePoints(t *testing.T) {
	ix := NewIndex()
	ctx := context.Background()
	require.NoError(t, ix.CreateCollection(ctx, "doc-a", 2))
	require.NoError(t, ix.Upsert(ctx, "doc-a", []driven.VectorPoint{
		point("p1", 1, 0),
		point("p2", 0, 1),
	}))

	require.NoError(t, ix.DeletePoints(ctx, "doc-a", []string{"p1", "unknown"}))
	assert.Equal(t, 1, ix.PointCount("doc-a"))
}
