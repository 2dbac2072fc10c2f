package eventstore_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

func Test_ResolveRange(t *testing.T) {
	testCases := []struct {
		name     string
		length   int
		options  eventstore.ReadOptions
		expected []int
	}{
		{name: "all forward", length: 4, options: eventstore.ReadAllOptions(), expected: []int{0, 1, 2, 3}},
		{name: "all forward with limit", length: 4, options: eventstore.ReadAllOptions().WithLimit(2), expected: []int{0, 1}},
		{name: "limit above length", length: 2, options: eventstore.ReadAllOptions().WithLimit(10), expected: []int{0, 1}},
		{name: "last forward", length: 4, options: eventstore.ReadOptions{Position: eventstore.Last}, expected: []int{3}},
		{name: "last backward", length: 4, options: eventstore.ReadOptions{Position: eventstore.Last, Direction: eventstore.Backward}, expected: []int{3, 2, 1, 0}},
		{name: "last backward with limit", length: 4, options: eventstore.ReadOptions{Position: eventstore.Last, Direction: eventstore.Backward}.WithLimit(1), expected: []int{3}},
		{name: "commit forward", length: 4, options: eventstore.ReadOptions{Position: eventstore.AtCommit(1)}, expected: []int{1, 2, 3}},
		{name: "commit backward includes start", length: 4, options: eventstore.ReadOptions{Position: eventstore.AtCommit(1), Direction: eventstore.Backward}, expected: []int{1, 0}},
		{name: "first backward", length: 4, options: eventstore.ReadOptions{Position: eventstore.First, Direction: eventstore.Backward}, expected: []int{0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			selected, err := eventstore.ResolveRange(tc.length, tc.options)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, slices.Collect(selected.Indexes()))
			assert.Equal(t, eventstore.CommitNumber(slices.Min(tc.expected)), selected.Lowest())
			assert.Equal(t, eventstore.CommitNumber(slices.Max(tc.expected)), selected.Highest())
		})
	}
}

func Test_ResolveRange_When_LimitIsZero(t *testing.T) {
	// act
	selected, err := eventstore.ResolveRange(2, eventstore.ReadAllOptions().WithLimit(0))
	_, emptyErr := eventstore.ResolveRange(0, eventstore.ReadAllOptions().WithLimit(0))

	// assert
	require.NoError(t, err)
	assert.True(t, selected.Empty())
	assert.Empty(t, slices.Collect(selected.Indexes()))
	assert.ErrorIs(t, emptyErr, eventstore.ErrCommitNotFound, "the position is checked before the limit")

	_, limited := eventstore.ReadAllOptions().Limit()
	assert.False(t, limited, "no limit by default")
}

func Test_ResolveRange_When_StartDoesNotExist(t *testing.T) {
	testCases := []struct {
		name    string
		length  int
		options eventstore.ReadOptions
	}{
		{name: "first on an empty stream", length: 0, options: eventstore.ReadAllOptions()},
		{name: "last on an empty stream", length: 0, options: eventstore.ReadOptions{Position: eventstore.Last}},
		{name: "commit at length", length: 3, options: eventstore.ReadOptions{Position: eventstore.AtCommit(3)}},
		{name: "commit beyond length backward", length: 3, options: eventstore.ReadOptions{Position: eventstore.AtCommit(9), Direction: eventstore.Backward}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eventstore.ResolveRange(tc.length, tc.options)

			assert.ErrorIs(t, err, eventstore.ErrCommitNotFound)
			kind, ok := eventstore.ReadErrorKindOf(err)
			assert.True(t, ok)
			assert.Equal(t, eventstore.ReadErrorCommitNotFound, kind)
		})
	}
}

func Test_Position_And_Direction(t *testing.T) {
	n, ok := eventstore.AtCommit(5).CommitNumber()
	assert.True(t, ok)
	assert.Equal(t, eventstore.CommitNumber(5), n)

	_, ok = eventstore.Last.CommitNumber()
	assert.False(t, ok)

	assert.Equal(t, eventstore.PositionFirst, eventstore.ReadOptions{}.Position.Kind())
	assert.Equal(t, "first", eventstore.First.String())
	assert.Equal(t, "last", eventstore.Last.String())
	assert.Equal(t, "commit 5", eventstore.AtCommit(5).String())
	assert.Equal(t, "forward", eventstore.Forward.String())
	assert.Equal(t, "backward", eventstore.Backward.String())
}
