package eventstore

import "context"

// ConsistencyLevel selects where a backend with replicas serves a read from.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary: a read observes every commit completed before it.
	// It is the default, since an AssignCommitNumber condition must be computed from an up-to-date length.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency lets a read go to a replica that may lag behind the primary.
	EventualConsistency
)

type consistencyKey struct{}

// WithStrongConsistency marks reads made with the returned context as primary-only.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyKey{}, StrongConsistency)
}

// WithEventualConsistency marks reads made with the returned context as replica-safe.
// Commits ignore the level and always go to the primary.
//
//	events, err := eventstore.Collect(eventstore.WithEventualConsistency(ctx), store.ReadStream(id))
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyKey{}, EventualConsistency)
}

// GetConsistencyLevel returns the level ctx was marked with, StrongConsistency if none.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	level, ok := ctx.Value(consistencyKey{}).(ConsistencyLevel)
	if !ok {
		return StrongConsistency
	}

	return level
}

// AllowsReplica reports whether a read made with ctx may be served by a replica.
func AllowsReplica(ctx context.Context) bool {
	return GetConsistencyLevel(ctx) == EventualConsistency
}

func (c ConsistencyLevel) String() string {
	if c == EventualConsistency {
		return "eventual"
	}

	return "strong"
}
