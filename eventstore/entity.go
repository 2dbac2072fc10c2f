package eventstore

import (
	"context"
	"iter"

	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

// EntityFolder rebuilds the state T of an entity identified by K from its events.
type EntityFolder[K comparable, E, T any] interface {
	// New creates the entity from its first event. It returns false if the event does not create one.
	New(id K, event E) (T, bool)

	// Fold applies a further event. Events the entity does not understand leave it unchanged.
	Fold(entity T, event E) T
}

// FoldEntity folds events into an entity. It returns false if events is empty or its first
// event does not create the entity.
func FoldEntity[K comparable, E, T any](id K, events iter.Seq[E], folder EntityFolder[K, E, T]) (T, bool) {
	var entity T
	created := false

	for event := range events {
		if !created {
			if entity, created = folder.New(id, event); !created {
				return entity, false
			}

			continue
		}

		entity = folder.Fold(entity, event)
	}

	return entity, created
}

// LoadEntity reads the stream of id and folds it into an entity.
// An empty stream yields false and no error.
func LoadEntity[K comparable, E any, O revision.Converter[E, O], T any](
	ctx context.Context,
	store Store[K, E, O],
	id K,
	folder EntityFolder[K, E, T],
) (T, bool, error) {

	var zero T

	events, err := ReadAll(ctx, store.ReadStream(id))
	if err != nil {
		if kind, ok := ReadErrorKindOf(err); ok && kind == ReadErrorCommitNotFound {
			return zero, false, nil // empty stream
		}

		return zero, false, err
	}

	entity, ok := FoldEntity(id, events, folder)

	return entity, ok, nil
}
