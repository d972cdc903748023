package driven

import "context"

// TextExtractor turns a local source file into plain text.
// Dispatch between extractors is by file extension; unreadable or
// corrupt input fails with an error wrapping domain.ErrExtractionFailed.
type TextExtractor interface {
	// Extract reads the file at path and returns its text content.
	Extract(ctx context.Context, path string) (string, error)

	// SupportedExtensions returns the lowercase extensions (including
	// the leading dot) this extractor handles. An empty slice marks a
	// fallback extractor.
	SupportedExtensions() []string
}
