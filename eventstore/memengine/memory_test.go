package memengine_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/jsonserialization"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/memengine"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/storetest"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/helper"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/observability/testdoubles"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

type userItem = revision.OldOrNew[userland.Event, userland.OldEvent]

func newStore(t *testing.T, options ...memengine.Option) *memengine.Store[userland.ID, userland.Event, userland.OldEvent, userItem] {
	store, err := memengine.NewStore[userland.ID](eventstore.NoSerialization[userland.Event, userland.OldEvent](), options...)
	require.NoError(t, err, "creating the event store failed")

	return store
}

func Test_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) helper.UserStore {
		return newStore(t)
	})
}

func Test_Conformance_When_EventsAreStoredAsJSON(t *testing.T) {
	storetest.Run(t, func(t *testing.T) helper.UserStore {
		codec, err := userland.NewCodec()
		require.NoError(t, err, "creating the codec failed")

		store, err := memengine.NewStore[userland.ID](codec.Serialization())
		require.NoError(t, err, "creating the event store failed")

		return store
	})
}

func Test_Conformance_When_StoreIsShared(t *testing.T) {
	shared := newStore(t)

	storetest.Run(t, func(_ *testing.T) helper.UserStore {
		return shared
	})
}

func Test_NewStore_When_SerializationIsIncomplete(t *testing.T) {
	// act
	_, err := memengine.NewStore[userland.ID](eventstore.Serialization[userland.Event, userland.OldEvent, userItem]{})

	// assert
	assert.ErrorIs(t, err, memengine.ErrNilSerialization)
}

func Test_Len_And_StreamIDs(t *testing.T) {
	// setup
	ctx := context.Background()
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	other := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated(), helper.FixtureRenamed())
	_ = store.ReadStream(other)

	// act
	length, err := store.Len(ctx, id)
	otherLength, otherErr := store.Len(ctx, other)

	// assert
	require.NoError(t, err)
	require.NoError(t, otherErr)
	assert.Equal(t, 2, length)
	assert.Equal(t, 0, otherLength)
	assert.ElementsMatch(t, []userland.ID{id, other}, store.StreamIDs())
}

type failingSerialization struct {
	failSerialize   bool
	failDeserialize bool
}

var errBroken = errors.New("broken codec")

func (f failingSerialization) Serialize(event userItem) (userItem, error) {
	if f.failSerialize {
		return userItem{}, errBroken
	}

	return event, nil
}

func (f failingSerialization) Deserialize(serialized userItem) (userItem, error) {
	if f.failDeserialize {
		return userItem{}, errBroken
	}

	return serialized, nil
}

func Test_Commit_When_SerializationFails(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memengine.NewStore[userland.ID](
		eventstore.SerializationOf[userland.Event, userland.OldEvent, userItem](failingSerialization{failSerialize: true}),
	)
	require.NoError(t, err)

	// arrange
	id := helper.GivenUniqueID(t)

	// act
	_, commitErr := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), helper.FixtureCreated())
	_, ok, commitManyErr := eventstore.CommitManyUnconditionally(ctx, store.WriteStream(id), helper.FixtureCreated(), helper.FixtureRenamed())

	// assert
	assert.ErrorIs(t, commitErr, eventstore.ErrSerializingEventFailed)
	assert.ErrorIs(t, commitErr, errBroken)
	assert.ErrorIs(t, commitErr, eventstore.ErrCommitFailed)
	assert.ErrorIs(t, commitManyErr, eventstore.ErrSerializingEventFailed)
	assert.False(t, ok)

	length, lenErr := store.Len(ctx, id)
	require.NoError(t, lenErr)
	assert.Equal(t, 0, length)
}

func Test_Read_When_DeserializationFails(t *testing.T) {
	// setup
	ctx := context.Background()
	store, err := memengine.NewStore[userland.ID](
		eventstore.SerializationOf[userland.Event, userland.OldEvent, userItem](failingSerialization{failDeserialize: true}),
	)
	require.NoError(t, err)

	// arrange
	id := helper.GivenUniqueID(t)
	_, commitErr := eventstore.CommitUnconditionally(ctx, store.WriteStream(id), helper.FixtureCreated())
	require.NoError(t, commitErr)

	// act
	_, readErr := eventstore.ReadAll(ctx, store.ReadStream(id))

	// assert
	assert.ErrorIs(t, readErr, eventstore.ErrDeserializingEventFailed)
	kind, ok := eventstore.ReadErrorKindOf(readErr)
	assert.True(t, ok)
	assert.Equal(t, eventstore.ReadErrorOther, kind)
}

func Test_Read_When_ContextIsCancelled(t *testing.T) {
	// setup
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())
	cancel()

	// act
	_, err := eventstore.ReadAll(ctx, store.ReadStream(id))

	// assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, eventstore.ErrReadFailed)
}

func Test_Observability_When_CommitAndReadSucceed(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logHandler := testdoubles.NewLogHandlerSpy(false)
	contextualLogger := testdoubles.NewContextualLoggerSpy()
	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()

	store := newStore(
		t,
		memengine.WithLogger(slog.New(logHandler)),
		memengine.WithContextualLogger(contextualLogger),
		memengine.WithMetrics(metrics),
		memengine.WithTracing(tracing),
	)

	// arrange
	id := helper.GivenUniqueID(t)

	// act
	_, _, err := eventstore.CommitManyUnconditionally(ctx, store.WriteStream(id), helper.FixtureCreated(), helper.FixtureRenamed())
	require.NoError(t, err)
	_ = helper.ReadAllEvents(t, ctx, store, id)

	// assert
	assert.True(t, logHandler.HasInfoLogWithMessage("eventstore operation: events committed").WithEventCount(2).WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("eventstore operation: stream read").WithEventCount(2).Assert())
	assert.True(t, contextualLogger.HasLog("info", "eventstore operation: events committed"))

	assert.True(t, metrics.HasDurationRecordForMetric(eventstore.MetricCommitDuration).WithStatus(eventstore.StatusSuccess).Assert())
	assert.True(t, metrics.HasValueRecordForMetric(eventstore.MetricEventsCommitted).WithOperation(eventstore.OperationCommit).Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(eventstore.MetricReadDuration).WithStatus(eventstore.StatusSuccess).Assert())
	assert.Positive(t, metrics.GetContextCallCount())

	assert.True(t, tracing.HasSpanRecordForName(eventstore.SpanNameCommit).
		WithStatus(eventstore.StatusSuccess).
		WithStartAttribute(eventstore.SpanAttrStreamID, id.String()).
		WithStartAttribute(eventstore.SpanAttrEventCount, "2").
		WithEndAttribute(eventstore.SpanAttrCommitNumber, "0").
		Assert())
	assert.True(t, tracing.HasSpanRecordForName(eventstore.SpanNameRead).
		WithStatus(eventstore.StatusSuccess).
		WithEndAttribute(eventstore.SpanAttrEventCount, "2").
		Assert())
}

func Test_Observability_When_ConditionIsNotMet(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := testdoubles.NewLogHandlerSpy(false)
	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()

	store := newStore(t, memengine.WithLogger(slog.New(logHandler)), memengine.WithMetrics(metrics), memengine.WithTracing(tracing))

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())

	// act
	_, err := eventstore.CommitAsNumber(ctx, store.WriteStream(id), helper.FixtureRenamed(), 0)

	// assert
	assert.ErrorIs(t, err, eventstore.ErrConditionNotMet)
	assert.True(t, logHandler.HasInfoLogWithMessage("eventstore operation: commit condition not met").
		WithAttr("condition", "assign commit number 0").
		Assert())
	assert.False(t, logHandler.HasErrorLogWithMessage("commit failed").Assert())
	assert.Equal(t, 1, metrics.HasCounterRecordForMetric(eventstore.MetricConditionNotMet).Count())
	assert.True(t, tracing.HasSpanRecordForName(eventstore.SpanNameCommit).
		WithStatus(eventstore.StatusError).
		WithEndAttribute(eventstore.LabelErrorType, eventstore.ErrorTypeConditionNotMet).
		Assert())
}

func Test_Observability_When_ReadFails(t *testing.T) {
	// setup
	ctx := context.Background()
	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()

	store := newStore(t, memengine.WithMetrics(metrics), memengine.WithTracing(tracing))

	// act
	_, err := eventstore.Read(ctx, store.ReadStream(helper.GivenUniqueID(t)), eventstore.ReadOptions{Position: eventstore.Last})

	// assert
	assert.ErrorIs(t, err, eventstore.ErrCommitNotFound)
	assert.True(t, metrics.HasCounterRecordForMetric(eventstore.MetricErrors).
		WithOperation(eventstore.OperationRead).
		WithErrorType(eventstore.ErrorTypeCommitNotFound).
		Assert())
	assert.True(t, tracing.HasSpanRecordForName(eventstore.SpanNameRead).WithStatus(eventstore.StatusError).Assert())
}

func Test_Commit_When_ConditionIsNotMet_And_NothingObserves(t *testing.T) {
	// setup
	ctx := context.Background()
	store := newStore(t)

	// arrange
	id := helper.GivenUniqueID(t)
	helper.GivenEventsWereCommitted(t, ctx, store, id, helper.FixtureCreated())
	stream := store.WriteStream(id)
	event := helper.FixtureRenamed()

	// act
	allocs := testing.AllocsPerRun(1000, func() {
		_, _ = eventstore.CommitAsNumber(ctx, stream, event, 7)
	})

	// assert
	_, err := eventstore.CommitAsNumber(ctx, stream, event, 7)
	assert.ErrorIs(t, err, eventstore.ErrConditionNotMet)
	assert.LessOrEqual(t, allocs, float64(1), "a rejected commit on an unobserved store must not allocate for observability")
}

func Test_Commit_When_EventIsNil(t *testing.T) {
	// setup
	ctx := context.Background()
	codec, err := userland.NewCodec()
	require.NoError(t, err)
	store, err := memengine.NewStore[userland.ID](codec.Serialization())
	require.NoError(t, err)

	// arrange
	id := helper.GivenUniqueID(t)

	// act
	_, commitErr := eventstore.CommitUnconditionally[userland.Event, userland.OldEvent](ctx, store.WriteStream(id), nil)

	// assert
	assert.ErrorIs(t, commitErr, jsonserialization.ErrNilEvent)
	assert.ErrorIs(t, commitErr, eventstore.ErrSerializingEventFailed)
	kind, ok := eventstore.CommitErrorKindOf(commitErr)
	require.True(t, ok)
	assert.Equal(t, eventstore.CommitErrorOther, kind)
}
