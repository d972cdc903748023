package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidChunking indicates a bad chunk size/overlap combination.
	// This is a configuration error and is fatal to an ingestion run.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrExtractionFailed indicates the source file is unreadable or
	// unsupported. Fatal to an ingestion run.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrEmbeddingFailed indicates the embedding service rejected a
	// text. Recoverable per chunk: the chunk keeps its text row but
	// gets no vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrVectorIndexUnavailable indicates the vector index could not be
	// reached or the collection could not be ensured. Recoverable at
	// the document level: chunks stay queryable in the relational store.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrBlobUnavailable indicates object storage rejected an archive
	// or delete request. Logged only.
	ErrBlobUnavailable = errors.New("blob storage unavailable")

	// ErrIllegalTransition indicates an attempted job state change that
	// the state machine forbids (e.g. writing to a terminal job).
	ErrIllegalTransition = errors.New("illegal job transition")
)
