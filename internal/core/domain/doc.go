// Package domain contains the core business entities and rules for
// QueryHub: documents, chunks, ingestion jobs and retrieval results.
// It has no dependencies on adapters or frameworks.
package domain
