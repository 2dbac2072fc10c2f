// Package eventstore defines the store contract of an event-sourced system: append-only streams
// of revisioned events, addressed by a stream ID, with gap-free commit numbers and optimistic
// concurrency control.
//
// Engines implement Store, WriteStream, and ReadStream:
//   - memengine: the in-memory reference store
//   - postgresengine: a PostgreSQL store
//
// Key types:
//   - CommitNumber: Zero-based, gap-free position of an event within its stream
//   - Condition: NoCondition or AssignCommitNumber(n), the OCC primitive
//   - ReadOptions: Position (First, Last, AtCommit), Direction, and optional limit of a read
//   - CommitError, ReadError: Errors with a machine-checkable kind
//   - Serialization: The Serializer/Deserializer pair a store is built with
//   - StorableEvent: The JSON stored form used by postgresengine
//
// Common usage pattern:
//
//	store := memengine.NewStore[user.ID](eventstore.NoSerialization[user.Event, user.OldEvent]())
//
//	_, err := eventstore.CommitAsNumber(ctx, store.WriteStream(id), user.Renamed{NewName: "root"}, expected)
//	if eventstore.IsConditionNotMet(err) {
//		// re-read the stream and retry, see RetryOnConditionNotMet
//	}
//
//	events, err := eventstore.ReadAll(ctx, store.ReadStream(id))
//	for event := range events {
//		// fold
//	}
package eventstore
