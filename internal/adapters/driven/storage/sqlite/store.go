package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/queryhub-labs/queryhub/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/queryhub-labs/queryhub/internal/core/domain"
	"github.com/queryhub-labs/queryhub/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// document, chunk and job store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.queryhub/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".queryhub", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for better concurrency between the HTTP handlers and
	// background ingestion goroutines.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Cascading deletes depend on foreign keys being enforced.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument inserts a new document row.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, blob_key, content_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.BlobKey, doc.ContentType, doc.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, filename, blob_key, content_type, created_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.BlobKey, &doc.ContentType, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, blob_key, content_type, created_at
		FROM documents ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.BlobKey, &doc.ContentType, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document; chunks, embedding markers and
// jobs go with it through the schema's cascades.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunk inserts one chunk row.
func (s *chunkStore) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, text, token_count, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, chunk.ID, chunk.DocumentID, chunk.Index, chunk.Text,
		chunk.TokenCount, chunk.Checksum, chunk.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// SaveEmbedding inserts one embedding marker row.
func (s *chunkStore) SaveEmbedding(ctx context.Context, emb *domain.Embedding) error {
	var vectorID sql.NullInt64
	if emb.VectorID != nil {
		vectorID = sql.NullInt64{Int64: *emb.VectorID, Valid: true}
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO embeddings (id, chunk_id, vector_id, index_version, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, emb.ID, emb.ChunkID, vectorID, emb.IndexVersion, emb.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

// GetChunks returns all chunks for a document in creation order.
func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, text, token_count, checksum, created_at
		FROM chunks WHERE document_id = ? ORDER BY created_at, chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text,
			&c.TokenCount, &c.Checksum, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ChunkIDs returns the ids of all chunks for a document.
func (s *chunkStore) ChunkIDs(ctx context.Context, documentID string) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk ids: %w", err)
	}
	return ids, nil
}

// ==================== Job Store ====================

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// CreateJob inserts a new job row.
func (s *jobStore) CreateJob(ctx context.Context, job *domain.Job) error {
	var jobErr sql.NullString
	if job.Error != nil {
		jobErr = sql.NullString{String: *job.Error, Valid: true}
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO jobs (id, document_id, status, progress, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, job.ID, job.DocumentID, string(job.Status), job.Progress, jobErr, job.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("creating job: %w", err)
	}
	return nil
}

// UpdateProgress raises progress while the job is processing. The
// guarded UPDATE silently drops writes that would lower progress or
// touch a job in any other state, so stale writers cannot corrupt the
// row.
func (s *jobStore) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	if progress > 100 {
		progress = 100
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?
		WHERE id = ? AND status = ? AND progress <= ?
	`, progress, jobID, string(domain.JobProcessing), progress)
	if err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking progress update: %w", err)
	}
	if affected == 0 {
		return s.errIfMissing(ctx, jobID, nil)
	}
	return nil
}

// MarkDone transitions a job to done with progress 100.
func (s *jobStore) MarkDone(ctx context.Context, jobID string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = 100
		WHERE id = ? AND status = ?
	`, string(domain.JobDone), jobID, string(domain.JobProcessing))
	if err != nil {
		return fmt.Errorf("marking job done: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking done transition: %w", err)
	}
	if affected == 0 {
		return s.errIfMissing(ctx, jobID, domain.ErrIllegalTransition)
	}
	return nil
}

// MarkFailed transitions a job to failed with a cause.
func (s *jobStore) MarkFailed(ctx context.Context, jobID string, cause string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?
		WHERE id = ? AND status = ?
	`, string(domain.JobFailed), cause, jobID, string(domain.JobProcessing))
	if err != nil {
		return fmt.Errorf("marking job failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking failed transition: %w", err)
	}
	if affected == 0 {
		return s.errIfMissing(ctx, jobID, domain.ErrIllegalTransition)
	}
	return nil
}

// LatestJob returns the most recent job for a document.
func (s *jobStore) LatestJob(ctx context.Context, documentID string) (*domain.Job, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, status, progress, error, created_at
		FROM jobs WHERE document_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, documentID)
	return scanJob(row)
}

// errIfMissing distinguishes "row absent" from "guard refused the
// write": the former is ErrNotFound, the latter is guardErr (nil for
// writes that drop silently).
func (s *jobStore) errIfMissing(ctx context.Context, jobID string, guardErr error) error {
	var exists bool
	row := s.store.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM jobs WHERE id = ?)", jobID)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("checking job existence: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return guardErr
}

// scanJob reads one job row.
func scanJob(row *sql.Row) (*domain.Job, error) {
	var job domain.Job
	var status string
	var jobErr sql.NullString
	if err := row.Scan(&job.ID, &job.DocumentID, &status, &job.Progress,
		&jobErr, &job.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	job.Status = domain.JobStatus(status)
	if jobErr.Valid {
		job.Error = &jobErr.String
	}
	return &job, nil
}

// isUniqueViolation reports whether err is a primary-key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
