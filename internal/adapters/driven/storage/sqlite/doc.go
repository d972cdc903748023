// Package sqlite provides a unified SQLite-based implementation of the
// storage port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// multiple store interfaces through a single database connection:
//
//   - DocumentStore: document metadata persistence
//   - ChunkStore: chunk and embedding-marker persistence
//   - JobStore: ingestion job tracking with state-machine guards
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory. Deleting a document cascades to its
// chunks, embedding markers and jobs at the schema level.
//
// # Job State Machine
//
// The job state machine is enforced at the write boundary with guarded
// UPDATE statements: progress writes apply only to processing jobs and
// only when they do not lower progress; terminal transitions apply only
// from a non-terminal state. A guard miss on a progress write is a
// silent drop, a guard miss on a terminal transition is
// domain.ErrIllegalTransition. This makes concurrent writers safe
// without read-modify-write races.
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on database-level
// locking provided by SQLite in WAL mode.
package sqlite
