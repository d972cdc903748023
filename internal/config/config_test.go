package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, "qdrant", cfg.Vector.Backend)
	assert.Equal(t, DefaultChunkSize, cfg.Ingest.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.Ingest.ChunkOverlap)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
listen_addr = ":9000"

[vector]
backend = "memory"

[ingest]
chunk_size = 500
chunk_overlap = 50
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, "memory", cfg.Vector.Backend)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 50, cfg.Ingest.ChunkOverlap)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
listen_addr = ":9000"
`)
	t.Setenv("QUERYHUB_LISTEN_ADDR", ":7777")
	t.Setenv("QUERYHUB_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.ListenAddr)
	// One key feeds both API clients unless the file pins them.
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestValidateRejectsBadChunking(t *testing.T) {
	path := writeConfig(t, `
[ingest]
chunk_size = 100
chunk_overlap = 100
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
[vector]
backend = "pinecone"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector.backend")
}
