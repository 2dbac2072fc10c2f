package eventstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

func Test_BuildStorableEvent(t *testing.T) {
	storable, err := eventstore.BuildStorableEvent("Renamed.v0", []byte(`{"newName":"root"}`))

	require.NoError(t, err)
	assert.Equal(t, "Renamed.v0", storable.EventType)
	assert.JSONEq(t, `{"newName":"root"}`, string(storable.PayloadJSON))
}

func Test_BuildStorableEvent_When_InputIsInvalid(t *testing.T) {
	_, err := eventstore.BuildStorableEvent("", []byte(`{}`))
	assert.ErrorIs(t, err, eventstore.ErrEmptyEventType)

	_, err = eventstore.BuildStorableEvent("Renamed.v0", []byte(`{"newName":`))
	assert.ErrorIs(t, err, eventstore.ErrInvalidPayloadJSON)

	_, err = eventstore.BuildStorableEvent("Renamed.v0", nil)
	assert.ErrorIs(t, err, eventstore.ErrInvalidPayloadJSON)
}
