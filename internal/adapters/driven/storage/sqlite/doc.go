// Package sqlite provides the SQLite implementation of driven.Store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database holds:
//
//   - items: extracted action items with JSON-encoded tags, entities and metadata
//   - sources: the per-file processing ledger, upserted on file_path
//   - relationships: duplicate and related links, unique per ordered triple
//   - embeddings: little-endian float32 vectors keyed by (item, model)
//   - extraction_runs: the audit trail of analysis batches
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The analysis pipeline itself is
// a single writer; WAL mode lets readers such as the MCP server run alongside it.
package sqlite
