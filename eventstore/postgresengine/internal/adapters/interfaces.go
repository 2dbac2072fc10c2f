package adapters

import "context"

// DBAdapter defines the database operations needed by the event store.
type DBAdapter interface {
	// Query runs on the primary. Commits use it for their RETURNING clause.
	Query(ctx context.Context, query string) (DBRows, error)

	// QueryReplica runs on the replica if one is configured, otherwise on the primary.
	QueryReplica(ctx context.Context, query string) (DBRows, error)

	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
