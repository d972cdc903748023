package domain

// ChunkPayload is the fixed payload record stored with every vector
// point. The shape is validated when reading hits back from the index;
// unknown or missing fields never panic, they yield zero values.
type ChunkPayload struct {
	// DocumentID is the owning document.
	DocumentID string

	// ChunkIndex is the chunk's position within its ingestion run.
	ChunkIndex int

	// ChunkText is the full chunk text.
	ChunkText string
}

// RetrievedContext is one ranked context passage returned by the
// retrieval engine, ready to be handed to the completion service.
type RetrievedContext struct {
	// Score is the cosine similarity reported by the vector index.
	Score float32

	// Text is the chunk text, truncated to bound prompt size.
	Text string

	// Payload is the point payload the hit carried.
	Payload ChunkPayload
}
