package services

import (
	"context"
	"strings"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driving"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.RetrievalService = (*RetrievalEngine)(nil)

// DefaultTopK is the number of contexts returned when the caller asks
// for a non-positive k.
const DefaultTopK = 4

// dedupPrefixLen is the fingerprint length in runes. Adjacent
// overlapping windows share long prefixes, so the first 200 characters
// identify duplicated passages reliably.
const dedupPrefixLen = 200

// maxContextLen bounds each accepted passage, in runes, to keep the
// assembled prompt within budget.
const maxContextLen = 1000

// RetrievalEngine answers queries with ranked, deduplicated context
// passages from a single document's collection. There is no
// cross-document global search: a missing document scope is a
// well-defined empty answer, not an error.
type RetrievalEngine struct {
	embedder    driven.EmbeddingService
	vectors     driven.VectorIndex
	collections *CollectionManager
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	collections *CollectionManager,
) *RetrievalEngine {
	return &RetrievalEngine{
		embedder:    embedder,
		vectors:     vectors,
		collections: collections,
	}
}

// Retrieve embeds the query once, searches the document's collection
// for 2k candidates, then walks them in descending score order
// deduplicating on text fingerprints and truncating accepted passages.
// Every failure along the way converts to an empty result: "no context
// available" is a valid answer and retrieval is never fatal to the
// caller.
func (e *RetrievalEngine) Retrieve(ctx context.Context, query string, k int, documentID string) []domain.RetrievedContext {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("empty query, returning no context")
		return []domain.RetrievedContext{}
	}
	if k <= 0 {
		k = DefaultTopK
	}
	if documentID == "" {
		logger.Debug("no document scope, global search unsupported")
		return []domain.RetrievedContext{}
	}

	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("embedding query: %v", err)
		return []domain.RetrievedContext{}
	}

	// The collection may not exist yet for a freshly uploaded document
	// whose ingestion has not finished; Ensure is idempotent.
	name := CollectionName(documentID)
	if err := e.collections.Ensure(ctx, name, e.embedder.Dimensions()); err != nil {
		logger.Warn("ensuring collection %s: %v", name, err)
		return []domain.RetrievedContext{}
	}

	// 2k candidates create headroom for dedup losses.
	hits, err := e.vectors.Search(ctx, name, queryVector, 2*k)
	if err != nil {
		logger.Warn("searching collection %s: %v", name, err)
		return []domain.RetrievedContext{}
	}
	logger.Debug("collection %s returned %d candidates for k=%d", name, len(hits), k)

	seen := make(map[string]struct{}, len(hits))
	results := make([]domain.RetrievedContext, 0, k)
	for _, hit := range hits {
		fingerprint := runePrefix(hit.Payload.ChunkText, dedupPrefixLen)
		if _, dup := seen[fingerprint]; dup {
			logger.Debug("dropping duplicate passage (score %.4f)", hit.Score)
			continue
		}
		seen[fingerprint] = struct{}{}

		results = append(results, domain.RetrievedContext{
			Score:   hit.Score,
			Text:    truncateRunes(hit.Payload.ChunkText, maxContextLen),
			Payload: hit.Payload,
		})
		if len(results) == k {
			break
		}
	}

	logger.Info("retrieved %d contexts for document %s", len(results), documentID)
	return results
}

// runePrefix returns the first n runes of s.
func runePrefix(s string, n int) string {
	if utf8Len := len([]rune(s)); utf8Len <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// truncateRunes bounds s to n runes, marking truncation.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
