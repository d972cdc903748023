package driven

import (
	"context"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

// VectorPoint is one point staged for upsert into a collection.
// The point id equals the chunk id.
type VectorPoint struct {
	// ID is the point identifier (the chunk id, a UUID string).
	ID string

	// Vector is the embedding, fixed dimension per collection.
	Vector []float32

	// Payload is the fixed payload record stored with the point.
	Payload domain.ChunkPayload
}

// VectorHit is one k-nearest-neighbour search result.
type VectorHit struct {
	// ID is the matched point id.
	ID string

	// Score is the cosine similarity.
	Score float32

	// Payload is the payload stored with the point, shape-validated on
	// read.
	Payload domain.ChunkPayload
}

// VectorIndex is the external ANN store, partitioned into named
// per-document collections with cosine similarity.
type VectorIndex interface {
	// CollectionExists probes for a collection without modifying it.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection with the given dimension
	// and cosine distance. Creating a collection that already exists
	// returns domain.ErrAlreadyExists; callers treat that as success.
	CreateCollection(ctx context.Context, name string, dimension int) error

	// DeleteCollection removes a collection and all its points.
	DeleteCollection(ctx context.Context, name string) error

	// Upsert writes points into a collection in one batch.
	Upsert(ctx context.Context, collection string, points []VectorPoint) error

	// DeletePoints removes individual points by id.
	DeletePoints(ctx context.Context, collection string, ids []string) error

	// Search returns the k nearest neighbours to the query vector in
	// descending score order.
	Search(ctx context.Context, collection string, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}
