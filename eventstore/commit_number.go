package eventstore

import (
	"fmt"
	"math"
)

// CommitNumber is the zero-based, gap-free position of an event within its stream.
type CommitNumber = uint32

// MaxCommitNumber is the highest commit number a stream can assign.
const MaxCommitNumber CommitNumber = math.MaxUint32

// Condition states what must hold for a commit to succeed.
//
// The zero value is NoCondition.
type Condition struct {
	commitNumber CommitNumber
	assign       bool
}

// NoCondition lets a commit always succeed, subject to the stream's capacity.
var NoCondition = Condition{}

// AssignCommitNumber makes a commit succeed only if its (first) event is assigned exactly n.
// This is the optimistic concurrency primitive.
func AssignCommitNumber(n CommitNumber) Condition {
	return Condition{commitNumber: n, assign: true}
}

// CommitNumber returns the commit number the condition expects, if any.
func (c Condition) CommitNumber() (CommitNumber, bool) {
	return c.commitNumber, c.assign
}

// Allows reports whether a commit that would be assigned next satisfies the condition.
func (c Condition) Allows(next CommitNumber) bool {
	return !c.assign || c.commitNumber == next
}

func (c Condition) String() string {
	if !c.assign {
		return "none"
	}

	return fmt.Sprintf("assign commit number %d", c.commitNumber)
}

// NextCommitNumber computes the commit number of an event appended to a stream holding length events,
// and checks it against condition. Backends call it inside their exclusive section.
func NextCommitNumber(length int, condition Condition) (CommitNumber, error) {
	return NextBatchCommitNumber(length, 1, condition)
}

// NextBatchCommitNumber is NextCommitNumber for a batch of count events: it returns the commit number
// of the first event and fails with StreamFull unless the whole batch fits.
func NextBatchCommitNumber(length int, count int, condition Condition) (CommitNumber, error) {
	if count < 1 {
		count = 1
	}

	if length < 0 || uint64(length)+uint64(count)-1 > uint64(MaxCommitNumber) {
		return 0, NewStreamFullError()
	}

	next := CommitNumber(length)

	if !condition.Allows(next) {
		return 0, NewConditionNotMetError()
	}

	return next, nil
}
