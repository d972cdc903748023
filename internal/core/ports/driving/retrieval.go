package driving

import (
	"context"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

// RetrievalService answers queries with ranked context passages.
type RetrievalService interface {
	// Retrieve embeds the query and returns up to k deduplicated,
	// truncated context passages from the document's collection.
	// An empty documentID yields an empty result: there is no
	// cross-document global search. Vector-service failures also yield
	// an empty result, never an error the caller must handle.
	Retrieve(ctx context.Context, query string, k int, documentID string) []domain.RetrievedContext
}
