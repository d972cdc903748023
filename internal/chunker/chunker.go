// Package chunker provides fixed-size text windowing with overlap.
// Split is stateless and deterministic: identical input always yields
// byte-identical output, which ingestion relies on for checksums and
// idempotent re-indexing.
package chunker

import (
	"fmt"
	"strings"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

// DefaultSize is the default window size in runes.
const DefaultSize = 2000

// DefaultOverlap is the default overlap between windows in runes.
const DefaultOverlap = 200

// Split slides a window of length size over text starting at offset 0.
// size and overlap count runes, not bytes, so window boundaries never
// land inside a multi-byte character. Each window is trimmed of
// surrounding whitespace and kept if non-empty; the next window starts
// size-overlap runes after the previous one. Ordering is significant:
// a chunk's position in the returned slice becomes its chunk index.
//
// size must be positive and overlap must satisfy 0 <= overlap < size;
// anything else returns domain.ErrInvalidChunking.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", domain.ErrInvalidChunking, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0,%d)", domain.ErrInvalidChunking, overlap, size)
	}

	runes := []rune(text)
	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
