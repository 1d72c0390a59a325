// Package store provides the SQLite-backed config repository.
//
// Records are addressed by (kind, name). Every write of changed content
// appends a new version; readers see the latest version by default, which
// gives overwrite-by-name semantics without losing history.
//
// # Critical Patterns
//
// Content-addressed writes
//   - Payloads are canonical JSON (internal/ir)
//   - content_hash = ir.ContentHash(kind, payload)
//   - Writing content identical to the latest version is a no-op
//
// Deterministic query results
//   - All queries order by name COLLATE BINARY, then version
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
