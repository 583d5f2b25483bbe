// Package store is the persistent entity store of the pipeline.
//
// It owns every persisted field of the survey entities. The pipeline
// engine holds no private copies: it reads a snapshot per entity,
// computes a result off-store, and writes it back in one commit per
// entity. Commits validate the status transition against the tables
// in package survey and reject illegal moves.
//
// SQLite with WAL mode backs the store. The connection pool is capped
// at a single writer; per-entity commits run inside their own
// transaction, so one entity's failure never rolls back another
// entity's already-committed transition.
package store
