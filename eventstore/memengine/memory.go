package memengine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/internal/observability"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

var ErrNilSerialization = errors.New("serializer and deserializer must not be nil")

var _ eventstore.Store[string, any, any] = (*Store[string, any, any, any])(nil)

// Store is an in-memory event store for streams identified by K, holding events of type E
// (old revisions O) in their serialized form S.
//
// It is safe for concurrent use. The zero value is not usable, use NewStore.
type Store[K comparable, E, O, S any] struct {
	mu            sync.Mutex
	streams       map[K]*stream[S]
	serialization eventstore.Serialization[E, O, S]
	observer      observability.Observer
}

// stream is the storage of one stream ID, shared by all handles for that ID.
// events is append-only: items below len(events) are never written again.
type stream[S any] struct {
	mu     sync.RWMutex
	events []S
}

// NewStore creates an empty Store that stores events as serialization produces them.
func NewStore[K comparable, E, O, S any](
	serialization eventstore.Serialization[E, O, S],
	options ...Option,
) (*Store[K, E, O, S], error) {

	if serialization.Serializer == nil || serialization.Deserializer == nil {
		return nil, ErrNilSerialization
	}

	cfg := config{}
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	return &Store[K, E, O, S]{
		streams:       make(map[K]*stream[S]),
		serialization: serialization,
		observer: observability.Observer{
			Logger:           cfg.logger,
			ContextualLogger: cfg.contextualLogger,
			Metrics:          cfg.metricsCollector,
			Tracing:          cfg.tracingCollector,
		},
	}, nil
}

// WriteStream returns a write handle for the stream of id.
func (s *Store[K, E, O, S]) WriteStream(id K) eventstore.WriteStream[E, O] {
	return &WriteStream[K, E, O, S]{store: s, streamID: s.streamLabel(id), stream: s.lookup(id)}
}

// ReadStream returns a read handle for the stream of id.
func (s *Store[K, E, O, S]) ReadStream(id K) eventstore.ReadStream[E, O] {
	return &ReadStream[K, E, O, S]{store: s, streamID: s.streamLabel(id), stream: s.lookup(id)}
}

// Len returns the number of events in the stream of id, which is the commit number
// the next event will be assigned.
func (s *Store[K, E, O, S]) Len(ctx context.Context, id K) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, eventstore.NewReadFailedError(err)
	}

	str := s.lookup(id)

	str.mu.RLock()
	defer str.mu.RUnlock()

	return len(str.events), nil
}

// StreamIDs returns the IDs of all streams handed out so far, in no particular order.
func (s *Store[K, E, O, S]) StreamIDs() []K {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]K, 0, len(s.streams))
	for id := range s.streams {
		ids = append(ids, id)
	}

	return ids
}

// streamLabel renders id for logs and spans. Unobserved stores skip the formatting.
func (s *Store[K, E, O, S]) streamLabel(id K) string {
	if !s.observer.Active() {
		return ""
	}

	return fmt.Sprint(id)
}

// lookup returns the stream of id, creating it on first use.
func (s *Store[K, E, O, S]) lookup(id K) *stream[S] {
	s.mu.Lock()
	defer s.mu.Unlock()

	str, ok := s.streams[id]
	if !ok {
		str = &stream[S]{}
		s.streams[id] = str
	}

	return str
}

// append runs the check-then-append step of a commit. Nothing is appended unless it returns nil.
func (str *stream[S]) append(ctx context.Context, condition eventstore.Condition, items ...S) (eventstore.CommitNumber, error) {
	str.mu.Lock()
	defer str.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, eventstore.NewCommitFailedError(err)
	}

	commitNumber, err := eventstore.NextBatchCommitNumber(len(str.events), len(items), condition)
	if err != nil {
		return 0, err
	}

	str.events = append(str.events, items...)

	return commitNumber, nil
}

// snapshot captures the events committed so far. The returned slice is never written to.
func (str *stream[S]) snapshot() []S {
	str.mu.RLock()
	defer str.mu.RUnlock()

	return str.events[:len(str.events):len(str.events)]
}

// WriteStream is the write handle of one stream of a Store.
type WriteStream[K comparable, E, O, S any] struct {
	store    *Store[K, E, O, S]
	streamID string
	stream   *stream[S]
}

// CommitOldOrNew appends event, given condition holds. The event is serialized before
// the stream is locked.
func (w *WriteStream[K, E, O, S]) CommitOldOrNew(
	ctx context.Context,
	event revision.OldOrNew[E, O],
	condition eventstore.Condition,
) (eventstore.CommitNumber, error) {

	observation, ctx := w.store.observer.StartCommit(ctx, w.streamID, 1, condition)

	serialized, err := w.store.serialization.Serializer.Serialize(event)
	if err != nil {
		commitErr := eventstore.NewCommitFailedError(errors.Join(eventstore.ErrSerializingEventFailed, err))
		observation.Failed(commitErr)

		return 0, commitErr
	}

	commitNumber, err := w.stream.append(ctx, condition, serialized)
	if err != nil {
		observation.Failed(err)
		return 0, err
	}

	observation.Succeeded(commitNumber)

	return commitNumber, nil
}

// CommitMany appends all events atomically. If any event fails to serialize, nothing is appended.
func (w *WriteStream[K, E, O, S]) CommitMany(
	ctx context.Context,
	events []E,
	condition eventstore.Condition,
) (eventstore.CommitNumber, bool, error) {

	if len(events) == 0 {
		return 0, false, nil
	}

	observation, ctx := w.store.observer.StartCommit(ctx, w.streamID, len(events), condition)

	serialized := make([]S, 0, len(events))
	for _, event := range events {
		item, err := w.store.serialization.Serializer.Serialize(revision.New[E, O](event))
		if err != nil {
			commitErr := eventstore.NewCommitFailedError(errors.Join(eventstore.ErrSerializingEventFailed, err))
			observation.Failed(commitErr)

			return 0, false, commitErr
		}

		serialized = append(serialized, item)
	}

	commitNumber, err := w.stream.append(ctx, condition, serialized...)
	if err != nil {
		observation.Failed(err)
		return 0, false, err
	}

	observation.Succeeded(commitNumber)

	return commitNumber, true, nil
}

// ReadStream is the read handle of one stream of a Store.
type ReadStream[K comparable, E, O, S any] struct {
	store    *Store[K, E, O, S]
	streamID string
	stream   *stream[S]
}

// ReadUnconverted selects events from a snapshot of the stream and deserializes them.
// Commits made after the snapshot was taken are not observed.
func (r *ReadStream[K, E, O, S]) ReadUnconverted(
	ctx context.Context,
	options eventstore.ReadOptions,
) (iter.Seq[revision.OldOrNew[E, O]], error) {

	observation, ctx := r.store.observer.StartRead(ctx, r.streamID, options)

	if err := ctx.Err(); err != nil {
		readErr := eventstore.NewReadFailedError(err)
		observation.Failed(readErr)

		return nil, readErr
	}

	snapshot := r.stream.snapshot()

	selected, err := eventstore.ResolveRange(len(snapshot), options)
	if err != nil {
		observation.Failed(err)
		return nil, err
	}

	items := make([]revision.OldOrNew[E, O], 0, selected.Count)
	for idx := range selected.Indexes() {
		item, deserializeErr := r.store.serialization.Deserializer.Deserialize(snapshot[idx])
		if deserializeErr != nil {
			readErr := eventstore.NewReadFailedError(errors.Join(eventstore.ErrDeserializingEventFailed, deserializeErr))
			observation.Failed(readErr)

			return nil, readErr
		}

		items = append(items, item)
	}

	observation.Succeeded(len(items))

	return slices.Values(items), nil
}
