// Package plaintext reads text-like files as UTF-8, best effort.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text and markdown files. It reports no
// supported extensions so the registry also uses it as the fallback for
// unknown formats, mirroring the best-effort read those get.
type Extractor struct {
	fallback bool
}

// New creates a plain text extractor for .txt and .md files.
func New() *Extractor {
	return &Extractor{}
}

// NewFallback creates a best-effort extractor for unknown extensions.
func NewFallback() *Extractor {
	return &Extractor{fallback: true}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	if e.fallback {
		return nil
	}
	return []string{".txt", ".md", ".markdown", ".log", ".csv", ".json", ".yaml", ".yml", ".xml", ".html"}
}

// Extract reads the file as UTF-8, replacing invalid byte sequences
// rather than failing on them.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
