// Package adapters provide database adapter implementations for the PostgreSQL event store.
//
// Three PostgreSQL libraries are supported: pgx.Pool, sql.DB, and sqlx.DB. All adapters run
// the SQL strings the store builds with goqu, so the store works the same with any of them.
// The pgx and sqlx adapters can route eventually consistent reads to a replica.
package adapters
