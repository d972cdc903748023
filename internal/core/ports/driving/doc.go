// Package driving provides interfaces for inbound adapters
// (primary ports). The HTTP boundary and the drop-folder watcher call
// through these; services under internal/core/services implement them.
package driving
