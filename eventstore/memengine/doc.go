// Package memengine provides the in-memory reference implementation of the eventstore contract.
//
// A Store maps stream IDs to shared, append-only sequences of serialized events. Commits to one
// stream are serialized by an exclusive lock held only for the check-then-append step; reads take
// a shared lock just long enough to capture a snapshot of the sequence. Streams are independent:
// work on one never waits for work on another once the stream has been looked up.
//
// Usage examples:
//
//	// Events kept as they are (no serialization)
//	store, _ := memengine.NewStore[user.ID](eventstore.NoSerialization[user.Event, user.OldEvent]())
//
//	// Events stored as JSON, with operational logging
//	store, _ := memengine.NewStore[user.ID](
//		codec.Serialization(),
//		memengine.WithLogger(slog.Default()),
//	)
//
//	number, _ := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), user.Created{Name: "admin"})
//	events, _ := eventstore.ReadAll(ctx, store.ReadStream(id))
package memengine
