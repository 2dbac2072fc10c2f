package eventstore

import (
	"context"

	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

// WriteStream is the write side of one event stream.
//
// E is the current event type, O the old-revision type of E (revision.Never when there is none).
// Errors returned by implementations are *CommitError values.
type WriteStream[E, O any] interface {
	// CommitOldOrNew appends either a current-shape event or an old revision, given condition holds,
	// and returns the assigned commit number.
	CommitOldOrNew(ctx context.Context, event revision.OldOrNew[E, O], condition Condition) (CommitNumber, error)

	// CommitMany appends all events atomically, given condition holds for the first of them.
	// It returns the commit number of the first event. An empty batch appends nothing, skips the
	// condition check and returns false.
	CommitMany(ctx context.Context, events []E, condition Condition) (CommitNumber, bool, error)
}

// Commit appends a current-shape event, given condition holds.
func Commit[E, O any](ctx context.Context, stream WriteStream[E, O], event E, condition Condition) (CommitNumber, error) {
	return stream.CommitOldOrNew(ctx, revision.New[E, O](event), condition)
}

// CommitUnconditionally appends a current-shape event without a condition.
func CommitUnconditionally[E, O any](ctx context.Context, stream WriteStream[E, O], event E) (CommitNumber, error) {
	return Commit(ctx, stream, event, NoCondition)
}

// CommitAsNumber appends a current-shape event which must be assigned commitNumber.
func CommitAsNumber[E, O any](
	ctx context.Context,
	stream WriteStream[E, O],
	event E,
	commitNumber CommitNumber,
) (CommitNumber, error) {

	return Commit(ctx, stream, event, AssignCommitNumber(commitNumber))
}

// CommitOld appends an old revision, given condition holds. Mostly useful to seed tests and migrations.
func CommitOld[E, O any](ctx context.Context, stream WriteStream[E, O], old O, condition Condition) (CommitNumber, error) {
	return stream.CommitOldOrNew(ctx, revision.Old[E, O](old), condition)
}

// CommitManyUnconditionally appends all events atomically without a condition.
func CommitManyUnconditionally[E, O any](ctx context.Context, stream WriteStream[E, O], events ...E) (CommitNumber, bool, error) {
	return stream.CommitMany(ctx, events, NoCondition)
}

// CommitManyWithNumber appends all events atomically; the first one must be assigned commitNumber.
func CommitManyWithNumber[E, O any](
	ctx context.Context,
	stream WriteStream[E, O],
	commitNumber CommitNumber,
	events ...E,
) (CommitNumber, bool, error) {

	return stream.CommitMany(ctx, events, AssignCommitNumber(commitNumber))
}
