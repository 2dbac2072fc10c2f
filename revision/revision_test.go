package revision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

type someEvent interface {
	Revision() revision.Pair
}

type someOldEvent interface {
	Revision() revision.Pair
	Convert() revision.OldOrNew[someEvent, someOldEvent]
}

type foo struct{}

func (foo) Revision() revision.Pair { return revision.NewPair("Foo", 2) }

var fooSchema = revision.NewSchema[someEvent, someOldEvent](
	revision.NewSet(revision.NewPair("Foo", 2)),
	revision.NewSet(revision.NewPair("Foo", 0), revision.NewPair("Foo", 1)),
)

type fooV0 struct{}

func (fooV0) Revision() revision.Pair { return revision.NewPair("Foo", 0) }

func (fooV0) Convert() revision.OldOrNew[someEvent, someOldEvent] {
	return revision.Old[someEvent, someOldEvent](fooV1{})
}

type fooV1 struct{}

func (fooV1) Revision() revision.Pair { return revision.NewPair("Foo", 1) }

func (fooV1) Convert() revision.OldOrNew[someEvent, someOldEvent] {
	return revision.New[someEvent, someOldEvent](foo{})
}

func Test_ConvertUntilNew_When_OldRevisionIsOneStepAway(t *testing.T) {
	// arrange
	var oldEvent userland.OldEvent = userland.DeactivatedWithoutReason{}

	// act
	event := revision.ConvertUntilNew[userland.Event](oldEvent)

	// assert
	assert.Equal(t, userland.Deactivated{Reason: ""}, event)
	assert.True(t, userland.Schema.IsCurrent(event.Revision()))
}

func Test_ConvertUntilNew_When_OldRevisionIsSeveralStepsAway(t *testing.T) {
	// arrange
	var oldEvent someOldEvent = fooV0{}

	// act
	event := revision.ConvertUntilNew[someEvent](oldEvent)

	// assert
	assert.Equal(t, foo{}, event)
	assert.True(t, fooSchema.IsCurrent(event.Revision()))
}

func Test_ConvertUntilNew_When_StartingFromEachOldRevision(t *testing.T) {
	for _, oldEvent := range []someOldEvent{fooV0{}, fooV1{}} {
		t.Run(oldEvent.Revision().String(), func(t *testing.T) {
			event := revision.ConvertUntilNew[someEvent](oldEvent)

			assert.True(t, fooSchema.IsCurrent(event.Revision()))
		})
	}
}

func Test_ConvertUntilNew_When_OldRevisionIsDecodedFromTheUserSchema(t *testing.T) {
	// setup
	codec, err := userland.NewCodec()
	require.NoError(t, err)

	require.Positive(t, userland.Schema.Old().Len())

	for old := range userland.Schema.Old().Values() {
		t.Run(old.String(), func(t *testing.T) {
			// arrange
			storable, buildErr := eventstore.BuildStorableEvent(old.String(), []byte(`{}`))
			require.NoError(t, buildErr)

			item, decodeErr := codec.Deserialize(storable)
			require.NoError(t, decodeErr)

			oldEvent, isOld := item.Obsolete()
			require.True(t, isOld, "a revision of the old set decodes to an old event")

			// act
			event := revision.ConvertUntilNew[userland.Event](oldEvent)

			// assert
			assert.True(t, userland.Schema.IsCurrent(event.Revision()))
		})
	}
}

func Test_ToNew(t *testing.T) {
	// arrange
	current := revision.New[userland.Event, userland.OldEvent](userland.Renamed{NewName: "root"})
	old := revision.Old[userland.Event, userland.OldEvent](userland.DeactivatedWithoutReason{})

	// act / assert
	assert.Equal(t, userland.Renamed{NewName: "root"}, revision.ToNew(current))
	assert.Equal(t, userland.Deactivated{}, revision.ToNew(old))
}

func Test_OldOrNew_Accessors(t *testing.T) {
	current := revision.New[userland.Event, userland.OldEvent](userland.Created{Name: "admin", Admin: true})
	old := revision.Old[userland.Event, userland.OldEvent](userland.DeactivatedWithoutReason{})

	assert.False(t, current.IsOld())
	event, ok := current.Current()
	assert.True(t, ok)
	assert.Equal(t, userland.Created{Name: "admin", Admin: true}, event)
	_, ok = current.Obsolete()
	assert.False(t, ok)

	assert.True(t, old.IsOld())
	_, ok = old.Current()
	assert.False(t, ok)
	obsolete, ok := old.Obsolete()
	assert.True(t, ok)
	assert.Equal(t, userland.DeactivatedV0, obsolete.Revision())
}

func Test_Schema_SupportedRevisions(t *testing.T) {
	assert.True(t, userland.Schema.Current().Equal(revision.NewSet(
		revision.NewPair("Created", 0),
		revision.NewPair("Renamed", 0),
		revision.NewPair("Befriended", 0),
		revision.NewPair("PromotedToAdmin", 0),
		revision.NewPair("Deactivated", 1),
	)))

	assert.True(t, userland.Schema.Old().Equal(revision.NewSet(
		revision.NewPair("Deactivated", 0),
	)))

	assert.True(t, userland.Schema.Supported().Equal(revision.NewSet(
		revision.NewPair("Created", 0),
		revision.NewPair("Renamed", 0),
		revision.NewPair("Befriended", 0),
		revision.NewPair("PromotedToAdmin", 0),
		revision.NewPair("Deactivated", 1),
		revision.NewPair("Deactivated", 0),
	)))

	assert.True(t, userland.Schema.IsSupported(userland.DeactivatedV0))
	assert.False(t, userland.Schema.IsCurrent(userland.DeactivatedV0))
	assert.False(t, userland.Schema.IsSupported(revision.NewPair("Deactivated", 2)))
}

func Test_NewSchema_When_RevisionsIntersect_ItShouldPanic(t *testing.T) {
	// arrange
	current := revision.NewSet(revision.NewPair("Foo", 1), revision.NewPair("Bar", 0))
	old := revision.NewSet(revision.NewPair("Foo", 0), revision.NewPair("Foo", 1))

	// act
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		_ = revision.NewSchema[someEvent, someOldEvent](current, old)
	}()

	// assert
	require.NotNil(t, recovered)
	conflict, ok := recovered.(*revision.ConflictError)
	require.True(t, ok)
	assert.Equal(t, "Foo.v1", conflict.Revision)
	assert.Contains(t, conflict.NewType, "someEvent")
	assert.Contains(t, conflict.OldType, "someOldEvent")
	assert.Contains(t, conflict.Error(), "Foo.v1")
}

func Test_NewSchema_When_EventHasNoOldRevisions(t *testing.T) {
	schema := revision.NewSchema[someEvent, revision.Never[someEvent, revision.Pair]](
		revision.NewSet(revision.NewPair("Foo", 2)),
		revision.NoRevisions[revision.Pair](),
	)

	assert.Equal(t, 1, schema.Supported().Len())
	assert.Equal(t, 0, schema.Old().Len())
}

func Test_Pair(t *testing.T) {
	assert.Equal(t, "Deactivated.v1", userland.DeactivatedV1.String())
	assert.True(t, userland.DeactivatedV1.Newer(userland.DeactivatedV0))
	assert.False(t, userland.DeactivatedV0.Newer(userland.DeactivatedV1))
	assert.False(t, userland.CreatedV0.Newer(userland.DeactivatedV0))
}
