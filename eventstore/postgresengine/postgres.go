package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/internal/observability"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/postgresengine/internal/adapters"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

const (
	uniqueViolation          = "23505"
	logActionLength          = "length"
	logActionRead            = "read"
	logActionCommit          = "commit"
	logActionCreateTable     = "create table"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgRetryUnconditional = "commit number taken by a concurrent commit, retrying"
	logAttrAttempt           = "attempt"
)

// ErrNilSerialization is returned when the serializer or the deserializer is nil.
var ErrNilSerialization = errors.New("serializer and deserializer must not be nil")

var _ eventstore.Store[string, any, any] = (*Store[string, any, any])(nil)

// Store is a PostgreSQL event store for streams identified by K, holding events of type E
// (old revisions O) as eventstore.StorableEvent rows.
//
// Stream IDs are stored as text rendered with fmt.Sprint, which must be unique per stream.
type Store[K comparable, E, O any] struct {
	db                   adapters.DBAdapter
	serialization        eventstore.Serialization[E, O, eventstore.StorableEvent]
	tableName            string
	unconditionalRetries int
	observer             observability.Observer
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool[K comparable, E, O any](
	db *pgxpool.Pool,
	serialization eventstore.Serialization[E, O, eventstore.StorableEvent],
	options ...Option,
) (*Store[K, E, O], error) {

	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newStore[K](adapters.NewPGXAdapter(db), serialization, options)
}

// NewStoreFromPGXPoolWithReplica creates a new Store using a primary and a replica pgx Pool.
// Reads use the replica only if their context was prepared with eventstore.WithEventualConsistency.
func NewStoreFromPGXPoolWithReplica[K comparable, E, O any](
	db *pgxpool.Pool,
	replica *pgxpool.Pool,
	serialization eventstore.Serialization[E, O, eventstore.StorableEvent],
	options ...Option,
) (*Store[K, E, O], error) {

	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newStore[K](adapters.NewPGXAdapterWithReplica(db, replica), serialization, options)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB[K comparable, E, O any](
	db *sql.DB,
	serialization eventstore.Serialization[E, O, eventstore.StorableEvent],
	options ...Option,
) (*Store[K, E, O], error) {

	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newStore[K](adapters.NewSQLAdapter(db), serialization, options)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX[K comparable, E, O any](
	db *sqlx.DB,
	serialization eventstore.Serialization[E, O, eventstore.StorableEvent],
	options ...Option,
) (*Store[K, E, O], error) {

	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newStore[K](adapters.NewSQLXAdapter(db), serialization, options)
}

// NewStoreFromSQLXWithReplica creates a new Store using a primary and a replica sqlx.DB.
func NewStoreFromSQLXWithReplica[K comparable, E, O any](
	db *sqlx.DB,
	replica *sqlx.DB,
	serialization eventstore.Serialization[E, O, eventstore.StorableEvent],
	options ...Option,
) (*Store[K, E, O], error) {

	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newStore[K](adapters.NewSQLXAdapterWithReplica(db, replica), serialization, options)
}

func newStore[K comparable, E, O any](
	db adapters.DBAdapter,
	serialization eventstore.Serialization[E, O, eventstore.StorableEvent],
	options []Option,
) (*Store[K, E, O], error) {

	if serialization.Serializer == nil || serialization.Deserializer == nil {
		return nil, ErrNilSerialization
	}

	cfg := defaultConfig()
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	return &Store[K, E, O]{
		db:                   db,
		serialization:        serialization,
		tableName:            cfg.tableName,
		unconditionalRetries: cfg.unconditionalRetries,
		observer: observability.Observer{
			Logger:           cfg.logger,
			ContextualLogger: cfg.contextualLogger,
			Metrics:          cfg.metricsCollector,
			Tracing:          cfg.tracingCollector,
		},
	}, nil
}

// CreateTable creates the events table if it does not exist yet.
func (s *Store[K, E, O]) CreateTable(ctx context.Context) error {
	query := CreateTableSQL(s.tableName)

	start := time.Now()
	_, err := s.db.Exec(ctx, query)
	s.observer.LogSQL(ctx, logActionCreateTable, query, time.Since(start))

	return err
}

// WriteStream returns a write handle for the stream of id.
func (s *Store[K, E, O]) WriteStream(id K) eventstore.WriteStream[E, O] {
	return &WriteStream[K, E, O]{store: s, streamID: fmt.Sprint(id)}
}

// ReadStream returns a read handle for the stream of id.
func (s *Store[K, E, O]) ReadStream(id K) eventstore.ReadStream[E, O] {
	return &ReadStream[K, E, O]{store: s, streamID: fmt.Sprint(id)}
}

// Len returns the number of events in the stream of id, read from the primary.
func (s *Store[K, E, O]) Len(ctx context.Context, id K) (int, error) {
	length, err := s.length(ctx, fmt.Sprint(id), false)
	if err != nil {
		return 0, eventstore.NewReadFailedError(err)
	}

	return length, nil
}

func (s *Store[K, E, O]) length(ctx context.Context, streamID string, useReplica bool) (int, error) {
	query, err := buildLengthQuery(s.tableName, streamID)
	if err != nil {
		return 0, err
	}

	rows, err := s.query(ctx, logActionLength, query, useReplica)
	if err != nil {
		return 0, err
	}
	defer s.closeRows(ctx, rows)

	var length int64
	if rows.Next() {
		if scanErr := rows.Scan(&length); scanErr != nil {
			return 0, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return 0, withContextErr(ctx, errors.Join(eventstore.ErrQueryingEventsFailed, rowsErr))
	}

	return int(length), nil
}

// query runs query on the primary, or on the replica if useReplica is set, and logs it.
func (s *Store[K, E, O]) query(ctx context.Context, action string, query string, useReplica bool) (adapters.DBRows, error) {
	start := time.Now()

	var rows adapters.DBRows
	var err error

	if useReplica {
		rows, err = s.db.QueryReplica(ctx, query)
	} else {
		rows, err = s.db.Query(ctx, query)
	}

	s.observer.LogSQL(ctx, action, query, time.Since(start))

	if err != nil {
		return nil, withContextErr(ctx, errors.Join(eventstore.ErrQueryingEventsFailed, err))
	}

	return rows, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store[K, E, O]) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.observer.Warn(ctx, logMsgCloseRowsFailed, errors.Join(eventstore.ErrClosingDBRowsFailed, closeErr))
	}
}

// commit inserts events as one batch. A commit without a condition that loses the race for
// its commit number to a concurrent commit is retried.
func (s *Store[K, E, O]) commit(
	ctx context.Context,
	streamID string,
	events []eventstore.StorableEvent,
	condition eventstore.Condition,
) (eventstore.CommitNumber, error) {

	_, conditional := condition.CommitNumber()

	query, err := buildCommitQuery(s.tableName, streamID, events, condition)
	if err != nil {
		return 0, eventstore.NewCommitFailedError(err)
	}

	for attempt := 0; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, eventstore.NewCommitFailedError(ctxErr)
		}

		commitNumber, inserted, insertErr := s.insert(ctx, query)

		switch {
		case insertErr == nil && inserted:
			return commitNumber, nil

		case insertErr == nil:
			// nothing inserted: the condition failed, or the batch does not fit
			if rejectErr := s.classifyRejected(ctx, streamID, len(events), condition); rejectErr != nil {
				return 0, rejectErr
			}

		case isUniqueViolation(insertErr):
			if conditional {
				return 0, eventstore.NewConditionNotMetError()
			}

		default:
			return 0, eventstore.NewCommitFailedError(insertErr)
		}

		if conditional {
			// the stream moved on between the insert and the classification
			return 0, eventstore.NewConditionNotMetError()
		}

		if attempt >= s.unconditionalRetries {
			return 0, eventstore.NewCommitFailedError(
				fmt.Errorf("%w: commit number still taken after %d retries", eventstore.ErrAppendingEventFailed, attempt),
			)
		}

		s.observer.Warn(ctx, logMsgRetryUnconditional, eventstore.ErrAppendingEventFailed, logAttrAttempt, attempt+1)
	}
}

// insert runs the commit query and returns the lowest commit number it inserted.
func (s *Store[K, E, O]) insert(ctx context.Context, query string) (eventstore.CommitNumber, bool, error) {
	rows, err := s.query(ctx, logActionCommit, query, false)
	if err != nil {
		return 0, false, err
	}
	defer s.closeRows(ctx, rows)

	var lowest int64
	inserted := false

	for rows.Next() {
		var commitNumber int64
		if scanErr := rows.Scan(&commitNumber); scanErr != nil {
			return 0, false, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}

		if !inserted || commitNumber < lowest {
			lowest = commitNumber
		}

		inserted = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return 0, false, withContextErr(ctx, errors.Join(eventstore.ErrAppendingEventFailed, rowsErr))
	}

	return eventstore.CommitNumber(lowest), inserted, nil
}

// classifyRejected finds out why a commit inserted nothing. It returns nil if the current
// state of the stream would accept the commit, i.e. the stream changed in the meantime.
func (s *Store[K, E, O]) classifyRejected(
	ctx context.Context,
	streamID string,
	count int,
	condition eventstore.Condition,
) error {

	length, err := s.length(ctx, streamID, false)
	if err != nil {
		return eventstore.NewCommitFailedError(err)
	}

	if _, err = eventstore.NextBatchCommitNumber(length, count, condition); err != nil {
		return err
	}

	return nil
}

// read selects the events of a resolved range. Commits made after the length was read are not observed.
func (s *Store[K, E, O]) read(
	ctx context.Context,
	streamID string,
	options eventstore.ReadOptions,
) ([]revision.OldOrNew[E, O], error) {

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, eventstore.NewReadFailedError(ctxErr)
	}

	useReplica := eventstore.AllowsReplica(ctx)

	length, err := s.length(ctx, streamID, useReplica)
	if err != nil {
		return nil, eventstore.NewReadFailedError(err)
	}

	selected, err := eventstore.ResolveRange(length, options)
	if err != nil {
		return nil, err
	}

	if selected.Empty() {
		return nil, nil
	}

	query, err := buildReadQuery(s.tableName, streamID, selected)
	if err != nil {
		return nil, eventstore.NewReadFailedError(err)
	}

	rows, err := s.query(ctx, logActionRead, query, useReplica)
	if err != nil {
		return nil, eventstore.NewReadFailedError(err)
	}
	defer s.closeRows(ctx, rows)

	items := make([]revision.OldOrNew[E, O], 0, selected.Count)

	for rows.Next() {
		var eventType string
		var payload []byte

		if scanErr := rows.Scan(&eventType, &payload); scanErr != nil {
			return nil, eventstore.NewReadFailedError(errors.Join(eventstore.ErrScanningDBRowFailed, scanErr))
		}

		storable, buildErr := eventstore.BuildStorableEvent(eventType, payload)
		if buildErr != nil {
			return nil, eventstore.NewReadFailedError(errors.Join(eventstore.ErrDeserializingEventFailed, buildErr))
		}

		item, deserializeErr := s.serialization.Deserializer.Deserialize(storable)
		if deserializeErr != nil {
			return nil, eventstore.NewReadFailedError(errors.Join(eventstore.ErrDeserializingEventFailed, deserializeErr))
		}

		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, eventstore.NewReadFailedError(withContextErr(ctx, errors.Join(eventstore.ErrQueryingEventsFailed, rowsErr)))
	}

	if len(items) != selected.Count {
		return nil, eventstore.NewReadFailedError(
			fmt.Errorf("%w: expected %d events, got %d", eventstore.ErrQueryingEventsFailed, selected.Count, len(items)),
		)
	}

	return items, nil
}

// isUniqueViolation detects a primary key collision reported by pgx or lib/pq.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}

	return false
}

// withContextErr adds the context's error to err, so callers can match context.Canceled
// regardless of how the driver reports it.
func withContextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return errors.Join(err, ctxErr)
	}

	return err
}

// WriteStream is the write handle of one stream of a Store.
type WriteStream[K comparable, E, O any] struct {
	store    *Store[K, E, O]
	streamID string
}

// CommitOldOrNew inserts event, given condition holds.
func (w *WriteStream[K, E, O]) CommitOldOrNew(
	ctx context.Context,
	event revision.OldOrNew[E, O],
	condition eventstore.Condition,
) (eventstore.CommitNumber, error) {

	observation, ctx := w.store.observer.StartCommit(ctx, w.streamID, 1, condition)

	storable, err := w.store.serialization.Serializer.Serialize(event)
	if err != nil {
		commitErr := eventstore.NewCommitFailedError(errors.Join(eventstore.ErrSerializingEventFailed, err))
		observation.Failed(commitErr)

		return 0, commitErr
	}

	commitNumber, err := w.store.commit(ctx, w.streamID, []eventstore.StorableEvent{storable}, condition)
	if err != nil {
		observation.Failed(err)
		return 0, err
	}

	observation.Succeeded(commitNumber)

	return commitNumber, nil
}

// CommitMany inserts all events with one statement. If any event fails to serialize, nothing is inserted.
func (w *WriteStream[K, E, O]) CommitMany(
	ctx context.Context,
	events []E,
	condition eventstore.Condition,
) (eventstore.CommitNumber, bool, error) {

	if len(events) == 0 {
		return 0, false, nil
	}

	observation, ctx := w.store.observer.StartCommit(ctx, w.streamID, len(events), condition)

	storables := make([]eventstore.StorableEvent, 0, len(events))
	for _, event := range events {
		storable, err := w.store.serialization.Serializer.Serialize(revision.New[E, O](event))
		if err != nil {
			commitErr := eventstore.NewCommitFailedError(errors.Join(eventstore.ErrSerializingEventFailed, err))
			observation.Failed(commitErr)

			return 0, false, commitErr
		}

		storables = append(storables, storable)
	}

	commitNumber, err := w.store.commit(ctx, w.streamID, storables, condition)
	if err != nil {
		observation.Failed(err)
		return 0, false, err
	}

	observation.Succeeded(commitNumber)

	return commitNumber, true, nil
}

// ReadStream is the read handle of one stream of a Store.
type ReadStream[K comparable, E, O any] struct {
	store    *Store[K, E, O]
	streamID string
}

// ReadUnconverted selects events from the stream and deserializes them.
func (r *ReadStream[K, E, O]) ReadUnconverted(
	ctx context.Context,
	options eventstore.ReadOptions,
) (iter.Seq[revision.OldOrNew[E, O]], error) {

	observation, ctx := r.store.observer.StartRead(ctx, r.streamID, options)

	items, err := r.store.read(ctx, r.streamID, options)
	if err != nil {
		observation.Failed(err)
		return nil, err
	}

	observation.Succeeded(len(items))

	return slices.Values(items), nil
}
