package driven

import "context"

// CompletionService generates an answer from retrieved context.
// Invoked only after retrieval; prompt engineering beyond the fixed
// system prompt is the adapter's concern.
type CompletionService interface {
	// Complete answers the question using the supplied context texts.
	Complete(ctx context.Context, contexts []string, question string) (string, error)

	// ModelName returns the completion model in use.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
