// Package memory provides in-memory implementations of the storage
// ports. Used by tests and by the ephemeral local mode; data does not
// survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document

	chunks *ChunkStore
	jobs   *JobStore
}

// NewDocumentStore creates a new in-memory document store. When chunk
// and job stores are supplied, deletes cascade to them the way the
// relational schema would.
func NewDocumentStore(chunks *ChunkStore, jobs *JobStore) *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    chunks,
		jobs:      jobs,
	}
}

// SaveDocument stores a new document row.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; ok {
		return domain.ErrAlreadyExists
	}
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// DeleteDocument removes a document, cascading to chunks and jobs.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	if s.chunks != nil {
		s.chunks.deleteByDocument(id)
	}
	if s.jobs != nil {
		s.jobs.deleteByDocument(id)
	}
	return nil
}
