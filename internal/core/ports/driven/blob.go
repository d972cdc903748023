package driven

import "context"

// BlobStore archives source files in object storage.
// All pipeline uses are best-effort: archive and delete failures are
// logged, never fatal.
type BlobStore interface {
	// PutFile uploads a local file under the given key.
	PutFile(ctx context.Context, key, localPath, contentType string) error

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}
