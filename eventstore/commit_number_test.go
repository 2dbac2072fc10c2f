package eventstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

func Test_NextCommitNumber(t *testing.T) {
	testCases := []struct {
		name      string
		length    int
		condition eventstore.Condition
		expected  eventstore.CommitNumber
		expectErr error
	}{
		{name: "empty stream without condition", length: 0, condition: eventstore.NoCondition, expected: 0},
		{name: "non-empty stream without condition", length: 3, condition: eventstore.NoCondition, expected: 3},
		{name: "condition met", length: 3, condition: eventstore.AssignCommitNumber(3), expected: 3},
		{name: "condition expects an older number", length: 3, condition: eventstore.AssignCommitNumber(2), expectErr: eventstore.ErrConditionNotMet},
		{name: "condition expects a newer number", length: 3, condition: eventstore.AssignCommitNumber(4), expectErr: eventstore.ErrConditionNotMet},
		{name: "last commit number still fits", length: int(eventstore.MaxCommitNumber), condition: eventstore.NoCondition, expected: eventstore.MaxCommitNumber},
		{name: "stream is full", length: int(eventstore.MaxCommitNumber) + 1, condition: eventstore.NoCondition, expectErr: eventstore.ErrStreamFull},
		{name: "stream full wins over condition", length: int(eventstore.MaxCommitNumber) + 1, condition: eventstore.AssignCommitNumber(0), expectErr: eventstore.ErrStreamFull},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := eventstore.NextCommitNumber(tc.length, tc.condition)

			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, next)
		})
	}
}

func Test_NextBatchCommitNumber_When_BatchDoesNotFit(t *testing.T) {
	// arrange
	length := int(eventstore.MaxCommitNumber) - 1

	// act
	fits, fitsErr := eventstore.NextBatchCommitNumber(length, 2, eventstore.NoCondition)
	_, tooBigErr := eventstore.NextBatchCommitNumber(length, 3, eventstore.NoCondition)

	// assert
	require.NoError(t, fitsErr)
	assert.Equal(t, eventstore.MaxCommitNumber-1, fits)
	assert.ErrorIs(t, tooBigErr, eventstore.ErrStreamFull)
}

func Test_NextBatchCommitNumber_Checks_TheFirstNumberOfTheBatch(t *testing.T) {
	next, err := eventstore.NextBatchCommitNumber(5, 3, eventstore.AssignCommitNumber(5))
	require.NoError(t, err)
	assert.Equal(t, eventstore.CommitNumber(5), next)

	_, err = eventstore.NextBatchCommitNumber(5, 3, eventstore.AssignCommitNumber(7))
	assert.ErrorIs(t, err, eventstore.ErrConditionNotMet)
}

func Test_Condition(t *testing.T) {
	n, ok := eventstore.NoCondition.CommitNumber()
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.True(t, eventstore.NoCondition.Allows(42))
	assert.Equal(t, "none", eventstore.NoCondition.String())

	condition := eventstore.AssignCommitNumber(7)
	n, ok = condition.CommitNumber()
	assert.True(t, ok)
	assert.Equal(t, eventstore.CommitNumber(7), n)
	assert.True(t, condition.Allows(7))
	assert.False(t, condition.Allows(8))
	assert.Equal(t, "assign commit number 7", condition.String())

	assert.Equal(t, eventstore.NoCondition, eventstore.Condition{})
}
