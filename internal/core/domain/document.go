package domain

import "time"

// Document represents an uploaded source document.
// The blob key points at the archived original in object storage; the
// extracted text lives in the document's chunks.
type Document struct {
	// ID is the unique identifier, assigned at creation and immutable.
	ID string

	// Filename is the original upload filename.
	Filename string

	// BlobKey is the object-storage key of the archived source file.
	BlobKey string

	// ContentType is the MIME type reported at upload time.
	ContentType string

	// CreatedAt is when the document row was created.
	CreatedAt time.Time
}

// Chunk is one bounded, overlap-joined window of a document's extracted
// text. Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk. It doubles as the
	// vector point id, so points can be deleted without a lookup table.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based, dense position within one ingestion run.
	Index int

	// Text is the chunk content. Never empty.
	Text string

	// TokenCount is the rune count of Text.
	TokenCount int

	// Checksum is the SHA-256 hex digest of Text. Because chunking is
	// deterministic, re-indexing identical input reproduces identical
	// checksums.
	Checksum string

	// CreatedAt is when the chunk row was created.
	CreatedAt time.Time
}

// Embedding is the audit record written once per chunk per ingestion
// run. The vector itself lives in the external index; this row only
// marks that embedding was attempted for the chunk.
type Embedding struct {
	// ID is the unique identifier for the marker row.
	ID string

	// ChunkID links to the chunk that was embedded.
	ChunkID string

	// VectorID is reserved for index-assigned identifiers. Nil when the
	// index keys points by chunk id (the current design).
	VectorID *int64

	// IndexVersion tracks the index schema generation.
	IndexVersion int

	// CreatedAt is when the marker row was created.
	CreatedAt time.Time
}
