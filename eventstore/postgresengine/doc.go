// Package postgresengine provides a PostgreSQL implementation of the eventstore.Store interface.
//
// Each event is a row of the events table, keyed by (stream_id, commit_number). A commit is a single
// INSERT … SELECT that computes the next commit number from the stream's current maximum, so
// commit numbers stay gap-free, and the primary key rejects concurrent commits that computed the
// same number. Events are stored as eventstore.StorableEvent, typically produced by the
// jsonserialization package.
//
// Key features:
//   - Multiple database adapter support (pgx, database/sql, sqlx)
//   - Atomic batch commits with optimistic concurrency via eventstore.AssignCommitNumber
//   - Reads from a replica for contexts prepared with eventstore.WithEventualConsistency
//   - Configurable table name, YAML configuration, logging, metrics, and tracing
//
// Usage examples:
//
//	codec, _ := userland.NewCodec()
//	pool, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool[userland.ID](pool, codec.Serialization())
//	_ = store.CreateTable(ctx)
//
//	// With a table name and structured logging
//	store, _ := postgresengine.NewStoreFromPGXPool[userland.ID](
//		pool,
//		codec.Serialization(),
//		postgresengine.WithTableName("user_events"),
//		postgresengine.WithLogger(slog.Default()),
//	)
package postgresengine
