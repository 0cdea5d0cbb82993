// Package sqlite provides SQLite-backed implementations of the storage
// ports: chunk storage with vector retrieval, per-document ingestion
// state, and ingestion run records.
//
// All stores share one database file. Embeddings are stored as
// little-endian float32 blobs; similarity is computed in process since
// SQLite has no native vector operations. The candidate set is narrowed
// with SQL predicates (user, creation time, source) before any distance
// is computed.
package sqlite
