package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/queryhub-labs/queryhub/internal/adapters/driven/storage/memory"
	vecmemory "github.com/queryhub-labs/queryhub/internal/adapters/driven/vector/memory"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// fakeEmbedder returns deterministic vectors and can be told to fail
// for specific call indices or for every call.
type fakeEmbedder struct {
	dims      int
	calls     int
	failCalls map[int]bool // 0-based call index -> fail
	failAll   bool
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 4, failCalls: map[int]bool{}}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	call := f.calls
	f.calls++
	if f.failAll || f.failCalls[call] {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	// Cheap deterministic vector derived from the text.
	vec := make([]float32, f.dims)
	for i, r := range text {
		vec[i%f.dims] += float32(r % 13)
		if i > 64 {
			break
		}
	}
	vec[0] += float32(len(text) % 7)
	return vec, nil
}

func (f *fakeEmbedder) Dimensions() int              { return f.dims }
func (f *fakeEmbedder) ModelName() string            { return "fake-embedder" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// downIndex fails every operation, simulating an unreachable vector
// service.
type downIndex struct{}

func (downIndex) CollectionExists(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func (downIndex) CreateCollection(context.Context, string, int) error {
	return errors.New("connection refused")
}

func (downIndex) DeleteCollection(context.Context, string) error {
	return errors.New("connection refused")
}

func (downIndex) Upsert(context.Context, string, []driven.VectorPoint) error {
	return errors.New("connection refused")
}

func (downIndex) DeletePoints(context.Context, string, []string) error {
	return errors.New("connection refused")
}

func (downIndex) Search(context.Context, string, []float32, int) ([]driven.VectorHit, error) {
	return nil, errors.New("connection refused")
}

func (downIndex) Close() error { return nil }

// env bundles the fakes one pipeline test needs.
type env struct {
	docs     *memory.DocumentStore
	chunks   *memory.ChunkStore
	jobs     *memory.JobStore
	index    driven.VectorIndex
	embedder *fakeEmbedder
}

func newEnv() *env {
	chunks := memory.NewChunkStore()
	jobs := memory.NewJobStore()
	return &env{
		docs:     memory.NewDocumentStore(chunks, jobs),
		chunks:   chunks,
		jobs:     jobs,
		index:    vecmemory.NewIndex(),
		embedder: newFakeEmbedder(),
	}
}

func (e *env) pipeline(opts ...PipelineOption) *IngestionPipeline {
	manager := NewCollectionManager(e.index, WithEnsureBackoff(0))
	return NewIngestionPipeline(
		e.docs, e.chunks, e.jobs, newTestExtractor(), e.embedder,
		e.index, manager, nil, opts...,
	)
}

// testExtractor reads any file as UTF-8, like the plaintext fallback.
type testExtractor struct{}

func newTestExtractor() testExtractor { return testExtractor{} }

func (testExtractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeTempDoc writes content to a file the pipeline may delete.
func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing temp doc: %v", err)
	}
	return path
}
