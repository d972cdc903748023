// Package services implements the core application logic: the
// ingestion pipeline, the vector collection manager, the retrieval
// engine and document lifecycle management. Services depend only on
// the driven ports and are wired with concrete adapters at startup.
package services
