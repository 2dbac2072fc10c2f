// Package helper provides Given/When helpers shared by the store tests.
package helper

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

// UserStore is the store shape all store tests run against.
type UserStore = eventstore.Store[userland.ID, userland.Event, userland.OldEvent]

func GivenUniqueID(t testing.TB) userland.ID {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return userland.ID(id)
}

// GivenEventsWereCommitted commits events one by one and returns the stream length afterwards.
func GivenEventsWereCommitted(t testing.TB, ctx context.Context, store UserStore, id userland.ID, events ...userland.Event) int {
	stream := store.WriteStream(id)

	for _, event := range events {
		_, err := eventstore.CommitUnconditionally(ctx, stream, event)
		require.NoError(t, err, "error in arranging test data")
	}

	return GivenStreamLength(t, ctx, store, id)
}

// GivenOldEventWasCommitted commits an old revision.
func GivenOldEventWasCommitted(t testing.TB, ctx context.Context, store UserStore, id userland.ID, old userland.OldEvent) {
	_, err := eventstore.CommitOld(ctx, store.WriteStream(id), old, eventstore.NoCondition)
	require.NoError(t, err, "error in arranging test data")
}

// GivenStreamLength reads the stream and returns how many events it holds.
func GivenStreamLength(t testing.TB, ctx context.Context, store UserStore, id userland.ID) int {
	events, err := eventstore.Collect(ctx, store.ReadStream(id))
	if kind, ok := eventstore.ReadErrorKindOf(err); ok && kind == eventstore.ReadErrorCommitNotFound {
		return 0
	}

	require.NoError(t, err, "error reading the stream")

	return len(events)
}

// ReadAllEvents reads the whole stream of id, converted to the current shape.
func ReadAllEvents(t testing.TB, ctx context.Context, store UserStore, id userland.ID) []userland.Event {
	events, err := eventstore.Collect(ctx, store.ReadStream(id))
	require.NoError(t, err, "error reading the stream")

	return events
}

// ReadEvents reads the stream of id with options, converted to the current shape.
func ReadEvents(
	t testing.TB,
	ctx context.Context,
	store UserStore,
	id userland.ID,
	options eventstore.ReadOptions,
) []userland.Event {

	events, err := eventstore.Read(ctx, store.ReadStream(id), options)
	require.NoError(t, err, "error reading the stream")

	return slices.Collect(events)
}

// ReadUnconverted reads the stream of id with options, exactly as stored.
func ReadUnconverted(
	t testing.TB,
	ctx context.Context,
	store UserStore,
	id userland.ID,
	options eventstore.ReadOptions,
) []revision.OldOrNew[userland.Event, userland.OldEvent] {

	items, err := store.ReadStream(id).ReadUnconverted(ctx, options)
	require.NoError(t, err, "error reading the stream")

	return slices.Collect(items)
}

func FixtureCreated() userland.Event {
	return userland.Created{Name: "admin", Admin: true}
}

func FixtureRenamed() userland.Event {
	return userland.Renamed{NewName: "root"}
}

func FixtureBefriended(friend userland.ID) userland.Event {
	return userland.Befriended{User: friend}
}

func FixturePromotedToAdmin(by userland.ID) userland.Event {
	return userland.PromotedToAdmin{By: by}
}

func FixtureDeactivated() userland.Event {
	return userland.Deactivated{Reason: "left the company"}
}
