// Package storetest is the contract conformance suite of eventstore.Store implementations.
//
// Engines run it from their own tests:
//
//	func Test_Conformance(t *testing.T) {
//		storetest.Run(t, func(t *testing.T) helper.UserStore {
//			return newStore(t)
//		})
//	}
package storetest

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/helper"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

// Factory returns a store to run one test against. Stream IDs are unique per test,
// so a factory may hand out the same store more than once.
type Factory func(t *testing.T) helper.UserStore

// Run runs every conformance test against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		test func(t *testing.T, newStore Factory)
	}{
		{"commit numbers are gap-free from zero", testCommitNumbersAreGapFree},
		{"condition is met when it names the next commit number", testConditionMet},
		{"condition not met leaves the stream unchanged", testConditionNotMet},
		{"commit many appends all events", testCommitMany},
		{"commit many with a failing condition appends nothing", testCommitManyConditionNotMet},
		{"commit many with an empty batch is a no-op", testCommitManyEmpty},
		{"read all yields events in commit order", testReadAll},
		{"read last backward yields events newest first", testReadLastBackward},
		{"read from a commit number in both directions", testReadFromCommit},
		{"read honours the limit", testReadLimit},
		{"read fails with commit not found", testReadCommitNotFound},
		{"read converts old revisions", testReadConvertsOldRevisions},
		{"read sequence is a restartable snapshot", testReadSnapshot},
		{"handles for the same stream share storage", testHandlesShareStorage},
		{"streams are independent", testStreamsAreIndependent},
		{"concurrent unconditional commits get consecutive numbers", testConcurrentUnconditionalCommits},
		{"concurrent conditional commits have exactly one winner", testConcurrentConditionalCommits},
		{"retry on condition not met converges", testRetryOnConditionNotMet},
		{"cancelled context commits nothing", testCancelledContext},
		{"entity is folded from the stream", testLoadEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.test(t, newStore)
		})
	}
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func testCommitNumbersAreGapFree(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	stream := store.WriteStream(id)
	events := []userland.Event{helper.FixtureCreated(), helper.FixtureRenamed(), helper.FixtureDeactivated()}

	// act
	numbers := make([]eventstore.CommitNumber, 0, len(events))
	for _, event := range events {
		number, err := eventstore.CommitUnconditionally(ctx, stream, event)
		require.NoError(t, err)
		numbers = append(numbers, number)
	}

	// assert
	assert.Equal(t, []eventstore.CommitNumber{0, 1, 2}, numbers)
}

func testConditionMet(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	length := helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())

	// act
	number, err := eventstore.CommitAsNumber(ctx, store.WriteStream(id), helper.FixtureRenamed(), eventstore.CommitNumber(length))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, eventstore.CommitNumber(1), number)
}

func testConditionNotMet(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated(), helper.FixtureRenamed())
	before := helper.ReadAllEvents(t, ctx, store, id)

	for _, n := range []eventstore.CommitNumber{0, 1, 3, 42} {
		// act
		_, err := eventstore.CommitAsNumber(ctx, store.WriteStream(id), helper.FixtureDeactivated(), n)

		// assert
		assert.ErrorIs(t, err, eventstore.ErrConditionNotMet)
		kind, ok := eventstore.CommitErrorKindOf(err)
		assert.True(t, ok)
		assert.Equal(t, eventstore.CommitErrorConditionNotMet, kind)
		assert.Equal(t, before, helper.ReadAllEvents(t, ctx, store, id))
	}
}

func testCommitMany(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	friend := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())

	// act
	number, ok, err := eventstore.CommitManyWithNumber(
		ctx,
		store.WriteStream(id),
		1,
		helper.FixtureRenamed(),
		helper.FixtureBefriended(friend),
	)

	// assert
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, eventstore.CommitNumber(1), number)
	assert.Equal(
		t,
		[]userland.Event{helper.FixtureCreated(), helper.FixtureRenamed(), helper.FixtureBefriended(friend)},
		helper.ReadAllEvents(t, ctx, store, id),
	)
}

func testCommitManyConditionNotMet(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())

	// act
	_, ok, err := eventstore.CommitManyWithNumber(
		ctx,
		store.WriteStream(id),
		0,
		helper.FixtureRenamed(),
		helper.FixtureDeactivated(),
	)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConditionNotMet)
	assert.False(t, ok)
	assert.Equal(t, []userland.Event{helper.FixtureCreated()}, helper.ReadAllEvents(t, ctx, store, id))
}

func testCommitManyEmpty(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())

	// act
	// the condition would fail, but an empty batch never checks it
	number, ok, err := eventstore.CommitManyWithNumber(ctx, store.WriteStream(id), 7)

	// assert
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, eventstore.CommitNumber(0), number)
	assert.Equal(t, 1, helper.GivenStreamLength(t, ctx, store, id))
}

func testReadAll(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	created := userland.Created{Name: "admin"}
	renamed := userland.Renamed{NewName: "root"}

	// act
	createdNumber, createdErr := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), userland.Event(created))
	renamedNumber, renamedErr := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), userland.Event(renamed))

	// assert
	require.NoError(t, createdErr)
	require.NoError(t, renamedErr)
	assert.Equal(t, eventstore.CommitNumber(0), createdNumber)
	assert.Equal(t, eventstore.CommitNumber(1), renamedNumber)
	assert.Equal(t, []userland.Event{created, renamed}, helper.ReadAllEvents(t, ctx, store, id))
}

func testReadLastBackward(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, userland.Created{Name: "admin"}, userland.Renamed{NewName: "root"})

	// act
	events := helper.ReadEvents(t, ctx, store, id, eventstore.ReadOptions{Position: eventstore.Last, Direction: eventstore.Backward})

	// assert
	assert.Equal(t, []userland.Event{userland.Renamed{NewName: "root"}, userland.Created{Name: "admin"}}, events)
}

func testReadFromCommit(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	friend := helper.GivenUniqueID(t)
	created, renamed, befriended := helper.FixtureCreated(), helper.FixtureRenamed(), helper.FixtureBefriended(friend)
	helper.GivenEventsWereCommitted(t, ctx, store, id, created, renamed, befriended)

	// act
	forward := helper.ReadEvents(t, ctx, store, id, eventstore.ReadOptions{Position: eventstore.AtCommit(1), Direction: eventstore.Forward})
	backward := helper.ReadEvents(t, ctx, store, id, eventstore.ReadOptions{Position: eventstore.AtCommit(1), Direction: eventstore.Backward})

	// assert
	assert.Equal(t, []userland.Event{renamed, befriended}, forward)
	assert.Equal(t, []userland.Event{renamed, created}, backward)
}

func testReadLimit(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	created, renamed, deactivated := helper.FixtureCreated(), helper.FixtureRenamed(), helper.FixtureDeactivated()
	helper.GivenEventsWereCommitted(t, ctx, store, id, created, renamed, deactivated)

	// act
	firstTwo := helper.ReadEvents(t, ctx, store, id, eventstore.ReadAllOptions().WithLimit(2))
	lastOne := helper.ReadEvents(t, ctx, store, id, eventstore.ReadOptions{Position: eventstore.Last, Direction: eventstore.Backward}.WithLimit(1))
	beyond := helper.ReadEvents(t, ctx, store, id, eventstore.ReadAllOptions().WithLimit(10))
	none := helper.ReadEvents(t, ctx, store, id, eventstore.ReadAllOptions().WithLimit(0))

	// assert
	assert.Equal(t, []userland.Event{created, renamed}, firstTwo)
	assert.Equal(t, []userland.Event{deactivated}, lastOne)
	assert.Equal(t, []userland.Event{created, renamed, deactivated}, beyond)
	assert.Empty(t, none, "a zero limit yields nothing")
}

func testReadCommitNotFound(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	emptyID := helper.GivenUniqueID(t)
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated(), helper.FixtureRenamed())

	cases := []struct {
		name    string
		id      userland.ID
		options eventstore.ReadOptions
	}{
		{"last on an empty stream", emptyID, eventstore.ReadOptions{Position: eventstore.Last}},
		{"first on an empty stream", emptyID, eventstore.ReadAllOptions()},
		{"commit equal to the length", id, eventstore.ReadOptions{Position: eventstore.AtCommit(2)}},
		{"commit beyond the length", id, eventstore.ReadOptions{Position: eventstore.AtCommit(99), Direction: eventstore.Backward}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := store.ReadStream(tc.id).ReadUnconverted(ctx, tc.options)

			// assert
			assert.ErrorIs(t, err, eventstore.ErrCommitNotFound)
			kind, ok := eventstore.ReadErrorKindOf(err)
			assert.True(t, ok)
			assert.Equal(t, eventstore.ReadErrorCommitNotFound, kind)
		})
	}
}

func testReadConvertsOldRevisions(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())
	helper.GivenOldEventWasCommitted(t, ctx, store, id, userland.DeactivatedWithoutReason{})

	// act
	unconverted := helper.ReadUnconverted(t, ctx, store, id, eventstore.ReadAllOptions())
	converted := helper.ReadAllEvents(t, ctx, store, id)

	// assert
	require.Len(t, unconverted, 2)
	assert.False(t, unconverted[0].IsOld())
	assert.True(t, unconverted[1].IsOld())
	old, _ := unconverted[1].Obsolete()
	assert.Equal(t, userland.DeactivatedV0, old.Revision())
	assert.Equal(t, []userland.Event{helper.FixtureCreated(), userland.Deactivated{Reason: ""}}, converted)
	assert.True(t, userland.Schema.IsCurrent(converted[1].Revision()))
}

func testReadSnapshot(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())
	events, err := eventstore.ReadAll(ctx, store.ReadStream(id))
	require.NoError(t, err)

	// act
	_, commitErr := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), helper.FixtureRenamed())
	first := slices.Collect(events)
	second := slices.Collect(events)

	// assert
	require.NoError(t, commitErr)
	assert.Equal(t, []userland.Event{helper.FixtureCreated()}, first)
	assert.Equal(t, first, second)
}

func testHandlesShareStorage(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	first := store.WriteStream(id)
	second := store.WriteStream(id)

	// act
	_, err1 := eventstore.CommitUnconditionally(ctx, first, helper.FixtureCreated())
	number, err2 := eventstore.CommitUnconditionally(ctx, second, helper.FixtureRenamed())

	// assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, eventstore.CommitNumber(1), number)
	assert.Len(t, helper.ReadAllEvents(t, ctx, store, id), 2)
}

func testStreamsAreIndependent(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	one := helper.GivenUniqueID(t)
	other := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, one, helper.FixtureCreated(), helper.FixtureRenamed())

	// act
	number, err := eventstore.CommitAsNumber(ctx, store.WriteStream(other), helper.FixtureCreated(), 0)

	// assert
	require.NoError(t, err)
	assert.Equal(t, eventstore.CommitNumber(0), number)
	assert.Len(t, helper.ReadAllEvents(t, ctx, store, one), 2)
	assert.Len(t, helper.ReadAllEvents(t, ctx, store, other), 1)
}

func testConcurrentUnconditionalCommits(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	const writers = 20
	id := helper.GivenUniqueID(t)
	numbers := make([]eventstore.CommitNumber, writers)
	errs := make([]error, writers)

	// act
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			numbers[i], errs[i] = eventstore.CommitUnconditionally(ctx, store.WriteStream(id), helper.FixtureRenamed())
		}(i)
	}
	wg.Wait()

	// assert
	for _, err := range errs {
		require.NoError(t, err)
	}

	slices.Sort(numbers)
	for i, number := range numbers {
		assert.Equal(t, eventstore.CommitNumber(i), number)
	}

	assert.Equal(t, writers, helper.GivenStreamLength(t, ctx, store, id))
}

func testConcurrentConditionalCommits(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	const writers = 10
	id := helper.GivenUniqueID(t)
	length := helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())
	errs := make([]error, writers)

	// act
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eventstore.CommitAsNumber(ctx, store.WriteStream(id), helper.FixtureRenamed(), eventstore.CommitNumber(length))
		}(i)
	}
	wg.Wait()

	// assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}

		assert.ErrorIs(t, err, eventstore.ErrConditionNotMet)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, length+1, helper.GivenStreamLength(t, ctx, store, id))
}

func testRetryOnConditionNotMet(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	const writers = 5
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())
	errs := make([]error, writers)

	attempt := func(ctx context.Context) error {
		events, err := eventstore.Collect(ctx, store.ReadStream(id))
		if err != nil {
			return err
		}

		_, err = eventstore.CommitAsNumber(ctx, store.WriteStream(id), helper.FixtureRenamed(), eventstore.CommitNumber(len(events)))

		return err
	}

	// act
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = eventstore.RetryOnConditionNotMet(
				ctx,
				attempt,
				eventstore.WithMaxAttempts(writers*2),
				eventstore.WithBaseDelay(time.Millisecond),
			)
		}(i)
	}
	wg.Wait()

	// assert
	for _, err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, writers+1, helper.GivenStreamLength(t, ctx, store, id))
}

func testCancelledContext(t *testing.T, newStore Factory) {
	// setup
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// arrange
	id := helper.GivenUniqueID(t)

	// act
	_, err := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), helper.FixtureCreated())
	_, manyOK, manyErr := eventstore.CommitManyUnconditionally(ctx, store.WriteStream(id), helper.FixtureCreated(), helper.FixtureRenamed())

	// assert
	assert.True(t, errors.Is(err, context.Canceled))
	kind, ok := eventstore.CommitErrorKindOf(err)
	assert.True(t, ok)
	assert.Equal(t, eventstore.CommitErrorOther, kind)
	assert.True(t, errors.Is(manyErr, context.Canceled))
	assert.False(t, manyOK)
	assert.Equal(t, 0, helper.GivenStreamLength(t, testContext(t), store, id))
}

func testLoadEntity(t *testing.T, newStore Factory) {
	// setup
	ctx := testContext(t)
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	friend := helper.GivenUniqueID(t)
	promoter := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(
		t, ctx, store, id,
		userland.Created{Name: "admin"},
		userland.Renamed{NewName: "root"},
		helper.FixtureBefriended(friend),
		helper.FixturePromotedToAdmin(promoter),
	)
	helper.GivenOldEventWasCommitted(t, ctx, store, id, userland.DeactivatedWithoutReason{})

	// act
	user, ok, err := eventstore.LoadEntity(ctx, store, id, eventstore.EntityFolder[userland.ID, userland.Event, userland.User](userland.Folder{}))

	// assert
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "root", user.Name)
	assert.True(t, user.IsAdmin)
	require.NotNil(t, user.PromotedToAdminBy)
	assert.Equal(t, promoter, *user.PromotedToAdminBy)
	assert.Equal(t, []userland.ID{friend}, user.Friends)
	assert.True(t, user.IsDeactivated)

	_, ok, err = eventstore.LoadEntity(ctx, store, helper.GivenUniqueID(t), eventstore.EntityFolder[userland.ID, userland.Event, userland.User](userland.Folder{}))
	require.NoError(t, err)
	assert.False(t, ok)
}
