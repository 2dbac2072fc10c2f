package eventstore

import (
	"context"
	"fmt"
	"iter"

	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

// PositionKind selects how a Position resolves to a start commit number.
type PositionKind int

const (
	PositionFirst PositionKind = iota
	PositionLast
	PositionCommit
)

// Position is the starting point of a read.
type Position struct {
	kind         PositionKind
	commitNumber CommitNumber
}

// First starts a read at the oldest event of the stream.
var First = Position{kind: PositionFirst}

// Last starts a read at the newest event of the stream.
var Last = Position{kind: PositionLast}

// AtCommit starts a read at the event with commit number n.
func AtCommit(n CommitNumber) Position {
	return Position{kind: PositionCommit, commitNumber: n}
}

func (p Position) Kind() PositionKind {
	return p.kind
}

// CommitNumber returns n for AtCommit(n) positions.
func (p Position) CommitNumber() (CommitNumber, bool) {
	return p.commitNumber, p.kind == PositionCommit
}

func (p Position) String() string {
	switch p.kind {
	case PositionLast:
		return "last"
	case PositionCommit:
		return fmt.Sprintf("commit %d", p.commitNumber)
	default:
		return "first"
	}
}

// Direction is the traversal order of a read.
type Direction int

const (
	// Forward walks toward the newest event, inclusive of the last one.
	Forward Direction = iota

	// Backward walks toward the oldest event, inclusive of the first one.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}

	return "forward"
}

// ReadOptions select which events of a stream a read yields.
type ReadOptions struct {
	Position  Position
	Direction Direction

	limit   uint32
	limited bool
}

// ReadAllOptions reads every event, oldest first.
func ReadAllOptions() ReadOptions {
	return ReadOptions{Position: First, Direction: Forward}
}

// WithLimit returns a copy of o yielding at most n events. WithLimit(0) yields nothing.
func (o ReadOptions) WithLimit(n uint32) ReadOptions {
	o.limit, o.limited = n, true
	return o
}

// Limit returns the maximum number of events to yield, if a limit was set.
func (o ReadOptions) Limit() (uint32, bool) {
	return o.limit, o.limited
}

// ReadStream is the read side of one event stream.
//
// Errors returned by implementations are *ReadError values.
type ReadStream[E, O any] interface {
	// ReadUnconverted yields the selected items exactly as stored, old revisions unresolved.
	//
	// The sequence reflects the stream as it was when the read began. It is finite and can be
	// iterated more than once, each time yielding the same items.
	ReadUnconverted(ctx context.Context, options ReadOptions) (iter.Seq[revision.OldOrNew[E, O]], error)
}

// Read is ReadUnconverted with every old revision converted to the current shape.
func Read[E any, O revision.Converter[E, O]](
	ctx context.Context,
	stream ReadStream[E, O],
	options ReadOptions,
) (iter.Seq[E], error) {

	unconverted, err := stream.ReadUnconverted(ctx, options)
	if err != nil {
		return nil, err
	}

	return func(yield func(E) bool) {
		for item := range unconverted {
			if !yield(revision.ToNew(item)) {
				return
			}
		}
	}, nil
}

// ReadAll reads every event of the stream, oldest first, converted to the current shape.
func ReadAll[E any, O revision.Converter[E, O]](ctx context.Context, stream ReadStream[E, O]) (iter.Seq[E], error) {
	return Read(ctx, stream, ReadAllOptions())
}

// Collect is ReadAll materialized into a slice. An empty stream yields an empty slice.
func Collect[E any, O revision.Converter[E, O]](ctx context.Context, stream ReadStream[E, O]) ([]E, error) {
	events, err := ReadAll(ctx, stream)
	if err != nil {
		return nil, err
	}

	collected := make([]E, 0)
	for event := range events {
		collected = append(collected, event)
	}

	return collected, nil
}

// ReadRange is a resolved read: the commit numbers to visit, in order.
type ReadRange struct {
	Start CommitNumber
	Count int
	Step  int
}

// Indexes iterates over the commit numbers of the range as slice indexes.
func (r ReadRange) Indexes() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, idx := 0, int(r.Start); i < r.Count; i, idx = i+1, idx+r.Step {
			if !yield(idx) {
				return
			}
		}
	}
}

// Empty reports whether the range visits nothing, which only a zero limit produces.
func (r ReadRange) Empty() bool {
	return r.Count == 0
}

// Lowest returns the smallest commit number visited by a non-empty range.
func (r ReadRange) Lowest() CommitNumber {
	if r.Step < 0 {
		return r.Start - CommitNumber(r.Count-1)
	}

	return r.Start
}

// Highest returns the largest commit number visited by a non-empty range.
func (r ReadRange) Highest() CommitNumber {
	if r.Step < 0 {
		return r.Start
	}

	return r.Start + CommitNumber(r.Count-1)
}

// ResolveRange resolves options against a stream holding length events.
//
// First resolves to 0, Last to length-1, AtCommit(n) to n. A start at or beyond length fails with
// CommitNotFound, which includes Last on an empty stream. Forward visits [start, length), Backward
// visits [start, 0]; both are truncated by the limit.
func ResolveRange(length int, options ReadOptions) (ReadRange, error) {
	var start int

	switch options.Position.kind {
	case PositionFirst:
		start = 0
	case PositionLast:
		start = length - 1
	case PositionCommit:
		start = int(options.Position.commitNumber)
	}

	if start < 0 || start >= length {
		return ReadRange{}, NewCommitNotFoundError()
	}

	count, step := length-start, 1
	if options.Direction == Backward {
		count, step = start+1, -1
	}

	if limit, ok := options.Limit(); ok && uint64(limit) < uint64(count) {
		count = int(limit)
	}

	return ReadRange{Start: CommitNumber(start), Count: count, Step: step}, nil
}
