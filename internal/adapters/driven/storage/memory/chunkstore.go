package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu         sync.RWMutex
	chunks     map[string][]domain.Chunk     // keyed by document id
	embeddings map[string][]domain.Embedding // keyed by chunk id
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks:     make(map[string][]domain.Chunk),
		embeddings: make(map[string][]domain.Embedding),
	}
}

// SaveChunk stores one chunk row.
func (s *ChunkStore) SaveChunk(_ context.Context, chunk *domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.DocumentID] = append(s.chunks[chunk.DocumentID], *chunk)
	return nil
}

// SaveEmbedding stores one embedding marker row.
func (s *ChunkStore) SaveEmbedding(_ context.Context, emb *domain.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[emb.ChunkID] = append(s.embeddings[emb.ChunkID], *emb)
	return nil
}

// GetChunks returns all chunks for a document in creation order.
func (s *ChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]domain.Chunk, len(s.chunks[documentID]))
	copy(chunks, s.chunks[documentID])
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].CreatedAt.Before(chunks[j].CreatedAt)
	})
	return chunks, nil
}

// ChunkIDs returns the ids of all chunks for a document.
func (s *ChunkStore) ChunkIDs(_ context.Context, documentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chunks[documentID]))
	for _, c := range s.chunks[documentID] {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// EmbeddingCount reports the marker rows written for a chunk.
// Test helper.
func (s *ChunkStore) EmbeddingCount(chunkID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings[chunkID])
}

// deleteByDocument removes a document's chunks and their markers.
func (s *ChunkStore) deleteByDocument(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks[documentID] {
		delete(s.embeddings, c.ID)
	}
	delete(s.chunks, documentID)
}
