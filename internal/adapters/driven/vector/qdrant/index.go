// Package qdrant adapts the vector index port to a Qdrant server over
// its gRPC client.
package qdrant

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds Qdrant connection settings.
type Config struct {
	// Host is the Qdrant server host.
	Host string

	// Port is the gRPC port, conventionally 6334.
	Port int

	// APIKey authenticates against a secured deployment. Empty for
	// local instances.
	APIKey string

	// UseTLS enables transport security; required by Qdrant Cloud.
	UseTLS bool
}

// Index is a Qdrant-backed implementation of driven.VectorIndex.
type Index struct {
	client *qdrant.Client
}

// NewIndex connects to a Qdrant server.
func NewIndex(cfg Config) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Index{client: client}, nil
}

// CollectionExists probes for a collection without modifying anything.
func (ix *Index) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := ix.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("probing collection %s: %w", name, err)
	}
	return exists, nil
}

// CreateCollection creates a cosine-distance collection with the given
// dimension. Losing a creation race surfaces as
// domain.ErrAlreadyExists so callers can treat it as success.
func (ix *Index) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension %d", domain.ErrInvalidInput, dimension)
	}
	err := ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("collection %s: %w", name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}

// DeleteCollection drops a collection and all its points.
func (ix *Index) DeleteCollection(ctx context.Context, name string) error {
	if err := ix.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// Upsert writes points into a collection. Point ids are chunk UUIDs,
// so re-upserting the same chunk overwrites rather than duplicates.
func (ix *Index) Upsert(ctx context.Context, name string, points []driven.VectorPoint) error {
	upsertPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		upsertPoints = append(upsertPoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id": p.Payload.DocumentID,
				"chunk_index": int64(p.Payload.ChunkIndex),
				"chunk_text":  p.Payload.ChunkText,
			}),
		})
	}

	wait := true
	_, err := ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         upsertPoints,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points into %s: %w", len(points), name, err)
	}
	return nil
}

// DeletePoints removes points by id.
func (ix *Index) DeletePoints(ctx context.Context, name string, ids []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
	}

	wait := true
	_, err := ix.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("deleting %d points from %s: %w", len(ids), name, err)
	}
	return nil
}

// Search returns the k nearest neighbours with their payloads, in
// descending score order as ranked by the server.
func (ix *Index) Search(ctx context.Context, name string, query []float32, k int) ([]driven.VectorHit, error) {
	limit := uint64(k)
	points, err := ix.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{
				Enable: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", name, err)
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, point := range points {
		hit := driven.VectorHit{
			ID:    point.Id.GetUuid(),
			Score: point.Score,
		}
		if val, ok := point.Payload["document_id"]; ok {
			hit.Payload.DocumentID = val.GetStringValue()
		}
		if val, ok := point.Payload["chunk_index"]; ok {
			hit.Payload.ChunkIndex = int(val.GetIntegerValue())
		}
		if val, ok := point.Payload["chunk_text"]; ok {
			hit.Payload.ChunkText = val.GetStringValue()
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close closes the underlying gRPC connection.
func (ix *Index) Close() error {
	return ix.client.Close()
}
