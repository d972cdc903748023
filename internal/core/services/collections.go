package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// collectionPrefix namespaces per-document collections in the index.
const collectionPrefix = "doc-"

// DefaultEnsureAttempts bounds collection creation retries.
const DefaultEnsureAttempts = 3

// DefaultEnsureBackoff is the pause between creation attempts.
const DefaultEnsureBackoff = time.Second

// CollectionName derives the vector collection name for a document.
// The mapping is pure and derived solely from the document id, so any
// component can recompute it without a lookup table.
func CollectionName(documentID string) string {
	return collectionPrefix + strings.ToLower(documentID)
}

// CollectionManager owns the per-document collection lifecycle:
// idempotent create-if-absent with bounded retry. There is no caching
// layer; every Ensure re-probes the index, trading a round trip for
// freedom from stale-cache bugs. Ensure runs once per ingestion job and
// once per retrieval, not per chunk.
type CollectionManager struct {
	index    driven.VectorIndex
	attempts int
	backoff  time.Duration
}

// ManagerOption configures a CollectionManager.
type ManagerOption func(*CollectionManager)

// WithEnsureAttempts sets the creation retry bound.
func WithEnsureAttempts(n int) ManagerOption {
	return func(m *CollectionManager) {
		if n > 0 {
			m.attempts = n
		}
	}
}

// WithEnsureBackoff sets the pause between creation attempts.
func WithEnsureBackoff(d time.Duration) ManagerOption {
	return func(m *CollectionManager) {
		if d >= 0 {
			m.backoff = d
		}
	}
}

// NewCollectionManager creates a collection manager over the index.
func NewCollectionManager(index driven.VectorIndex, opts ...ManagerOption) *CollectionManager {
	m := &CollectionManager{
		index:    index,
		attempts: DefaultEnsureAttempts,
		backoff:  DefaultEnsureBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure makes the named collection exist with the given dimension and
// cosine distance. Existence is probed first with a non-destructive
// read; creation races (concurrent first-time ingestion of the same
// document) are absorbed by treating "already exists" as success.
// After exhausting retries the call fails with
// domain.ErrVectorIndexUnavailable.
func (m *CollectionManager) Ensure(ctx context.Context, name string, dimension int) error {
	exists, err := m.index.CollectionExists(ctx, name)
	if err != nil {
		// A failed probe is not fatal on its own: creation below will
		// surface a real outage.
		logger.Debug("collection probe for %s failed: %v", name, err)
	} else if exists {
		logger.Debug("collection %s already exists", name)
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		err := m.index.CreateCollection(ctx, name, dimension)
		if err == nil {
			logger.Info("created collection %s (dimension %d)", name, dimension)
			return nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Debug("collection %s created concurrently", name)
			return nil
		}
		lastErr = err
		if attempt < m.attempts {
			logger.Warn("attempt %d/%d to create collection %s failed, retrying: %v",
				attempt, m.attempts, name, err)
			select {
			case <-time.After(m.backoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: creating collection %s: %v",
					domain.ErrVectorIndexUnavailable, name, ctx.Err())
			}
		}
	}
	return fmt.Errorf("%w: creating collection %s after %d attempts: %v",
		domain.ErrVectorIndexUnavailable, name, m.attempts, lastErr)
}
