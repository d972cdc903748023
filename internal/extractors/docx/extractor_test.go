package docx

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queryhub-labs/queryhub/internal/core/domain"
)

const documentXMLBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestExtractParagraphs(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": documentXMLBody,
	})

	text, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestExtractNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0600))

	_, err := New().Extract(context.Background(), path)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestExtractMissingDocumentXML(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/styles.xml": "<styles/>",
	})

	_, err := New().Extract(context.Background(), path)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestExtractMalformedXML(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": "<w:document><unclosed",
	})

	_, err := New().Extract(context.Background(), path)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".docx"}, New().SupportedExtensions())
}
