// Package watch ingests files dropped into a watched directory.
package watch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/queryhub-labs/queryhub/internal/core/ports/driving"
	"github.com/queryhub-labs/queryhub/internal/logger"
)

// DefaultSettle is how long a file must stay quiet before it is
// ingested. Editors and copies fire bursts of write events; ingesting
// mid-copy would chunk a truncated file.
const DefaultSettle = 500 * time.Millisecond

// defaultExtensions are the file types picked up from the drop folder.
var defaultExtensions = []string{".txt", ".md", ".docx", ".log", ".csv", ".json"}

// Watcher monitors a drop directory and ingests files appearing in it.
type Watcher struct {
	documents  driving.DocumentService
	ingestion  driving.IngestionService
	watcher    *fsnotify.Watcher
	extensions []string
	settle     time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions overrides the watched file extensions.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithSettle overrides the quiet period before ingestion.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// NewWatcher creates a drop-folder watcher.
func NewWatcher(documents driving.DocumentService, ingestion driving.IngestionService, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		documents:  documents,
		ingestion:  ingestion,
		watcher:    fsw,
		extensions: defaultExtensions,
		settle:     DefaultSettle,
		timers:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch monitors dir until ctx is cancelled. Files already present at
// startup are not ingested; only new arrivals are.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching %s for new documents", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.watched(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.scheduleIngest(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher: %v", err)
		}
	}
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// scheduleIngest (re)arms the settle timer for path. Each new event
// pushes ingestion back until the file stops changing.
func (w *Watcher) scheduleIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.timers[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

// ingest registers the settled file and hands a private copy to the
// pipeline. The copy matters: the pipeline removes its input when done,
// and the user's dropped file is not ours to delete.
func (w *Watcher) ingest(ctx context.Context, path string) {
	tmpPath, err := copyToTemp(path)
	if err != nil {
		logger.Warn("copying dropped file %s: %v", path, err)
		return
	}

	filename := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(path))

	doc, err := w.documents.Register(ctx, filename, "", contentType)
	if err != nil {
		os.Remove(tmpPath)
		logger.Warn("registering dropped file %s: %v", filename, err)
		return
	}

	logger.Info("ingesting dropped file %s as document %s", filename, doc.ID)
	w.ingestion.Start(doc.ID, tmpPath)
}

// watched reports whether path has an ingestable extension.
func (w *Watcher) watched(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// copyToTemp copies src into a fresh temp file and returns its path.
func copyToTemp(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp("", "queryhub-drop-*"+filepath.Ext(src))
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
