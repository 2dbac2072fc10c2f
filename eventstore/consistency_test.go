package eventstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

func Test_ConsistencyLevel(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, eventstore.StrongConsistency, eventstore.GetConsistencyLevel(ctx), "strong is the default")
	assert.False(t, eventstore.AllowsReplica(ctx))

	eventual := eventstore.WithEventualConsistency(ctx)
	assert.Equal(t, eventstore.EventualConsistency, eventstore.GetConsistencyLevel(eventual))
	assert.True(t, eventstore.AllowsReplica(eventual))
	assert.Equal(t, "eventual", eventstore.GetConsistencyLevel(eventual).String())

	strongAgain := eventstore.WithStrongConsistency(eventual)
	assert.False(t, eventstore.AllowsReplica(strongAgain), "the innermost level wins")
	assert.Equal(t, "strong", eventstore.GetConsistencyLevel(strongAgain).String())
}
