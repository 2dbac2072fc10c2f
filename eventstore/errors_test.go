package eventstore_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

func Test_CommitError_Matches_ItsKindOnly(t *testing.T) {
	cause := errors.New("disk on fire")

	testCases := []struct {
		name         string
		err          error
		expectedKind eventstore.CommitErrorKind
		matches      error
		doesNotMatch []error
	}{
		{
			name:         "condition not met",
			err:          eventstore.NewConditionNotMetError(),
			expectedKind: eventstore.CommitErrorConditionNotMet,
			matches:      eventstore.ErrConditionNotMet,
			doesNotMatch: []error{eventstore.ErrStreamFull, eventstore.ErrCommitFailed},
		},
		{
			name:         "stream full",
			err:          eventstore.NewStreamFullError(),
			expectedKind: eventstore.CommitErrorStreamFull,
			matches:      eventstore.ErrStreamFull,
			doesNotMatch: []error{eventstore.ErrConditionNotMet, eventstore.ErrCommitFailed},
		},
		{
			name:         "other",
			err:          eventstore.NewCommitFailedError(cause),
			expectedKind: eventstore.CommitErrorOther,
			matches:      cause,
			doesNotMatch: []error{eventstore.ErrConditionNotMet, eventstore.ErrStreamFull},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("renaming user: %w", tc.err)

			kind, ok := eventstore.CommitErrorKindOf(wrapped)
			assert.True(t, ok)
			assert.Equal(t, tc.expectedKind, kind)
			assert.ErrorIs(t, wrapped, tc.matches)

			for _, other := range tc.doesNotMatch {
				assert.NotErrorIs(t, wrapped, other)
			}
		})
	}
}

func Test_CommitError_Messages(t *testing.T) {
	assert.Equal(t, "condition not met", eventstore.NewConditionNotMetError().Error())
	assert.Equal(t, "stream full", eventstore.NewStreamFullError().Error())
	assert.Equal(t, "commit failed: boom", eventstore.NewCommitFailedError(errors.New("boom")).Error())
	assert.True(t, eventstore.IsConditionNotMet(eventstore.NewConditionNotMetError()))
	assert.False(t, eventstore.IsConditionNotMet(eventstore.NewStreamFullError()))
}

func Test_ReadError_Matches_ItsKindOnly(t *testing.T) {
	cause := errors.New("connection refused")

	notFound := fmt.Errorf("loading user: %w", eventstore.NewCommitNotFoundError())
	failed := eventstore.NewReadFailedError(cause)

	kind, ok := eventstore.ReadErrorKindOf(notFound)
	assert.True(t, ok)
	assert.Equal(t, eventstore.ReadErrorCommitNotFound, kind)
	assert.ErrorIs(t, notFound, eventstore.ErrCommitNotFound)
	assert.NotErrorIs(t, notFound, eventstore.ErrReadFailed)

	kind, ok = eventstore.ReadErrorKindOf(failed)
	assert.True(t, ok)
	assert.Equal(t, eventstore.ReadErrorOther, kind)
	assert.ErrorIs(t, failed, eventstore.ErrReadFailed)
	assert.ErrorIs(t, failed, cause)
	assert.NotErrorIs(t, failed, eventstore.ErrCommitNotFound)

	_, ok = eventstore.ReadErrorKindOf(cause)
	assert.False(t, ok)
}
