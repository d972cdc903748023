// Package memory provides an in-memory vector index with exact cosine
// similarity search. It backs tests and the ephemeral local mode;
// collections do not survive a restart.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type collection struct {
	dimension int
	points    map[string]driven.VectorPoint
}

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewIndex creates an empty in-memory index.
func NewIndex() *Index {
	return &Index{collections: make(map[string]*collection)}
}

// CollectionExists probes for a collection.
func (ix *Index) CollectionExists(_ context.Context, name string) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.collections[name]
	return ok, nil
}

// CreateCollection creates a collection with the given dimension.
func (ix *Index) CreateCollection(_ context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, dimension)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.collections[name]; ok {
		return domain.ErrAlreadyExists
	}
	ix.collections[name] = &collection{
		dimension: dimension,
		points:    make(map[string]driven.VectorPoint),
	}
	return nil
}

// DeleteCollection removes a collection and all its points.
func (ix *Index) DeleteCollection(_ context.Context, name string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.collections[name]; !ok {
		return domain.ErrNotFound
	}
	delete(ix.collections, name)
	return nil
}

// Upsert writes points into a collection.
func (ix *Index) Upsert(_ context.Context, name string, points []driven.VectorPoint) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	coll, ok := ix.collections[name]
	if !ok {
		return domain.ErrNotFound
	}
	for _, p := range points {
		if len(p.Vector) != coll.dimension {
			return fmt.Errorf("%w: point %s has dimension %d, collection %s expects %d",
				domain.ErrInvalidInput, p.ID, len(p.Vector), name, coll.dimension)
		}
		coll.points[p.ID] = p
	}
	return nil
}

// DeletePoints removes points by id. Unknown ids are ignored.
func (ix *Index) DeletePoints(_ context.Context, name string, ids []string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	coll, ok := ix.collections[name]
	if !ok {
		return domain.ErrNotFound
	}
	for _, id := range ids {
		delete(coll.points, id)
	}
	return nil
}

// Search returns the k nearest neighbours by cosine similarity in
// descending score order.
func (ix *Index) Search(_ context.Context, name string, query []float32, k int) ([]driven.VectorHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	coll, ok := ix.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}

	hits := make([]driven.VectorHit, 0, len(coll.points))
	for _, p := range coll.points {
		hits = append(hits, driven.VectorHit{
			ID:      p.ID,
			Score:   cosineSimilarity(query, p.Vector),
			Payload: p.Payload,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (ix *Index) Close() error {
	return nil
}

// PointCount reports the points stored in a collection. Test helper.
func (ix *Index) PointCount(name string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	coll, ok := ix.collections[name]
	if !ok {
		return 0
	}
	return len(coll.points)
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
