// Package postgreswrapper connects the postgresengine tests to a real database.
//
// Tests are skipped unless EVENTSTORE_POSTGRES_DSN is set. ADAPTER_TYPE selects the adapter
// (pgxpool, the default, sqldb, or sqlx); EVENTSTORE_POSTGRES_REPLICA_DSN adds a replica.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/jsonserialization"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

const (
	EnvDSN         = "EVENTSTORE_POSTGRES_DSN"
	EnvReplicaDSN  = "EVENTSTORE_POSTGRES_REPLICA_DSN"
	EnvAdapterType = "ADAPTER_TYPE"

	// TestTableName is the events table all postgresengine tests share.
	TestTableName = "events_test"
)

// Adapter type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

// UserStore is the postgres store of the userland test domain.
type UserStore = postgresengine.Store[userland.ID, userland.Event, userland.OldEvent]

// Wrapper abstracts over the different adapter types.
type Wrapper interface {
	GetStore() *UserStore
	Exec(ctx context.Context, query string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool    *pgxpool.Pool
	replica *pgxpool.Pool
	store   *UserStore
}

func (w *PGXPoolWrapper) GetStore() *UserStore {
	return w.store
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.pool.Exec(ctx, query)
	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()

	if w.replica != nil {
		w.replica.Close()
	}
}

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db    *sql.DB
	store *UserStore
}

func (w *SQLDBWrapper) GetStore() *UserStore {
	return w.store
}

func (w *SQLDBWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db      *sqlx.DB
	replica *sqlx.DB
	store   *UserStore
}

func (w *SQLXWrapper) GetStore() *UserStore {
	return w.store
}

func (w *SQLXWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error

	if w.replica != nil {
		_ = w.replica.Close()
	}
}

// TestConfig returns the database config from the environment and skips the test if there is none.
func TestConfig(t testing.TB) postgresengine.Config {
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set, skipping test against PostgreSQL", EnvDSN)
	}

	return postgresengine.Config{
		DSN:        dsn,
		ReplicaDSN: os.Getenv(EnvReplicaDSN),
		TableName:  TestTableName,
	}
}

// CreateWrapperWithTestConfig creates the wrapper selected by the environment, with the events
// table created. It is closed when the test finishes.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	cfg := TestConfig(t)
	options = append(cfg.Options(), options...)

	codec, err := userland.NewCodec()
	require.NoError(t, err, "error creating the codec in test setup")

	var wrapper Wrapper

	adapterTypeFromEnv := strings.ToLower(os.Getenv(EnvAdapterType))

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		wrapper = createPGXPoolWrapper(t, cfg, codec, options)

	case typeSQLDB:
		db, openErr := cfg.OpenSQLDB()
		require.NoError(t, openErr, "error opening the DB in test setup")
		store, storeErr := postgresengine.NewStoreFromSQLDB[userland.ID](db, codec.Serialization(), options...)
		require.NoError(t, storeErr, "error creating the event store in test setup")

		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLX:
		wrapper = createSQLXWrapper(t, cfg, codec, options)

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	t.Cleanup(wrapper.Close)

	require.NoError(t, wrapper.GetStore().CreateTable(context.Background()), "error creating the events table")

	return wrapper
}

func createPGXPoolWrapper(
	t testing.TB,
	cfg postgresengine.Config,
	codec *jsonserialization.Codec[userland.Event, userland.OldEvent],
	options []postgresengine.Option,
) Wrapper {

	poolConfig, err := cfg.PGXPoolConfig()
	require.NoError(t, err, "error parsing the DSN in test setup")

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	require.NoError(t, err, "error connecting to DB pool in test setup")

	if cfg.ReplicaDSN == "" {
		store, storeErr := postgresengine.NewStoreFromPGXPool[userland.ID](pool, codec.Serialization(), options...)
		require.NoError(t, storeErr, "error creating the event store in test setup")

		return &PGXPoolWrapper{pool: pool, store: store}
	}

	replicaConfig, err := cfg.ReplicaPGXPoolConfig()
	require.NoError(t, err, "error parsing the replica DSN in test setup")

	replica, err := pgxpool.NewWithConfig(context.Background(), replicaConfig)
	require.NoError(t, err, "error connecting to replica DB pool in test setup")

	store, err := postgresengine.NewStoreFromPGXPoolWithReplica[userland.ID](pool, replica, codec.Serialization(), options...)
	require.NoError(t, err, "error creating the event store in test setup")

	return &PGXPoolWrapper{pool: pool, replica: replica, store: store}
}

func createSQLXWrapper(
	t testing.TB,
	cfg postgresengine.Config,
	codec *jsonserialization.Codec[userland.Event, userland.OldEvent],
	options []postgresengine.Option,
) Wrapper {

	db, err := cfg.OpenSQLX()
	require.NoError(t, err, "error opening the DB in test setup")

	if cfg.ReplicaDSN == "" {
		store, storeErr := postgresengine.NewStoreFromSQLX[userland.ID](db, codec.Serialization(), options...)
		require.NoError(t, storeErr, "error creating the event store in test setup")

		return &SQLXWrapper{db: db, store: store}
	}

	replica, err := cfg.OpenReplicaSQLX()
	require.NoError(t, err, "error opening the replica DB in test setup")

	store, err := postgresengine.NewStoreFromSQLXWithReplica[userland.ID](db, replica, codec.Serialization(), options...)
	require.NoError(t, err, "error creating the event store in test setup")

	return &SQLXWrapper{db: db, replica: replica, store: store}
}

// CleanUp empties the events table.
func CleanUp(t testing.TB, wrapper Wrapper) {
	err := wrapper.Exec(context.Background(), "TRUNCATE TABLE "+pgx.Identifier{TestTableName}.Sanitize())
	require.NoError(t, err, "error cleaning up the events table")
}
