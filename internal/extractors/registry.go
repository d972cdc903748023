// Package extractors selects a text extractor for a source file by its
// extension. Richer formats (PDF and friends) are the province of
// external extraction services and have no extractor here; unknown
// extensions fall back to a best-effort UTF-8 read.
package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt    map[string]driven.TextExtractor
	fallback driven.TextExtractor
}

// NewRegistry creates a registry with the given extractors. Extractors
// reporting no supported extensions become the fallback; later
// registrations win on conflicts.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.TextExtractor)}
	for _, e := range extractors {
		exts := e.SupportedExtensions()
		if len(exts) == 0 {
			r.fallback = e
			continue
		}
		for _, ext := range exts {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// Extract picks the extractor for path's extension and runs it.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := r.byExt[ext]; ok {
		return e.Extract(ctx, path)
	}
	if r.fallback != nil {
		return r.fallback.Extract(ctx, path)
	}
	return "", fmt.Errorf("%w: unsupported extension %q", domain.ErrExtractionFailed, ext)
}
