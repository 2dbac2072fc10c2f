package eventstore

import (
	"errors"
)

var ErrStreamFull = errors.New("stream full")
var ErrConditionNotMet = errors.New("condition not met")
var ErrCommitNotFound = errors.New("commit not found")
var ErrCommitFailed = errors.New("commit failed")
var ErrReadFailed = errors.New("read failed")

var ErrSerializingEventFailed = errors.New("serializing the event failed")
var ErrDeserializingEventFailed = errors.New("deserializing the event failed")
var ErrEmptyEventsTableName = errors.New("events table name must not be empty")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrBuildingQueryFailed = errors.New("building the query failed")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrAppendingEventFailed = errors.New("appending the event failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrClosingDBRowsFailed = errors.New("closing db rows failed")

// ErrorWithKind is implemented by errors that expose a machine-checkable kind next to their message.
type ErrorWithKind[K comparable] interface {
	error
	Kind() K
}

// CommitErrorKind classifies a CommitError.
type CommitErrorKind int

const (
	// CommitErrorOther is a backend-specific failure.
	CommitErrorOther CommitErrorKind = iota

	// CommitErrorStreamFull means the commit-number range of the stream is exhausted.
	CommitErrorStreamFull

	// CommitErrorConditionNotMet means an AssignCommitNumber condition did not hold.
	// It is expected under contention: re-read the stream and retry.
	CommitErrorConditionNotMet
)

func (k CommitErrorKind) String() string {
	switch k {
	case CommitErrorStreamFull:
		return "stream full"
	case CommitErrorConditionNotMet:
		return "condition not met"
	default:
		return "other"
	}
}

// ReadErrorKind classifies a ReadError.
type ReadErrorKind int

const (
	// ReadErrorOther is a backend-specific failure.
	ReadErrorOther ReadErrorKind = iota

	// ReadErrorCommitNotFound means the resolved start position does not exist in the stream.
	ReadErrorCommitNotFound
)

func (k ReadErrorKind) String() string {
	if k == ReadErrorCommitNotFound {
		return "commit not found"
	}

	return "other"
}

// CommitError is the error returned by all commit operations.
type CommitError struct {
	kind  CommitErrorKind
	cause error
}

// conditionNotMet is shared by all ConditionNotMet failures, they are frequent under contention.
var conditionNotMet = &CommitError{kind: CommitErrorConditionNotMet}

var streamFull = &CommitError{kind: CommitErrorStreamFull}

// NewConditionNotMetError returns the (preallocated) ConditionNotMet error.
func NewConditionNotMetError() *CommitError {
	return conditionNotMet
}

// NewStreamFullError returns the StreamFull error.
func NewStreamFullError() *CommitError {
	return streamFull
}

// NewCommitFailedError wraps a backend-specific failure as a CommitError of kind CommitErrorOther.
func NewCommitFailedError(cause error) *CommitError {
	return &CommitError{kind: CommitErrorOther, cause: cause}
}

func (e *CommitError) Kind() CommitErrorKind {
	return e.kind
}

func (e *CommitError) Error() string {
	if e.cause != nil {
		return ErrCommitFailed.Error() + ": " + e.cause.Error()
	}

	if e.kind == CommitErrorOther {
		return ErrCommitFailed.Error()
	}

	return e.kind.String()
}

func (e *CommitError) Unwrap() error {
	return e.cause
}

// Is makes errors.Is(err, ErrConditionNotMet) and its siblings work for CommitError.
func (e *CommitError) Is(target error) bool {
	switch target {
	case ErrStreamFull:
		return e.kind == CommitErrorStreamFull
	case ErrConditionNotMet:
		return e.kind == CommitErrorConditionNotMet
	case ErrCommitFailed:
		return e.kind == CommitErrorOther
	default:
		return false
	}
}

// ReadError is the error returned by all read operations.
type ReadError struct {
	kind  ReadErrorKind
	cause error
}

var commitNotFound = &ReadError{kind: ReadErrorCommitNotFound}

// NewCommitNotFoundError returns the CommitNotFound error.
func NewCommitNotFoundError() *ReadError {
	return commitNotFound
}

// NewReadFailedError wraps a backend-specific failure as a ReadError of kind ReadErrorOther.
func NewReadFailedError(cause error) *ReadError {
	return &ReadError{kind: ReadErrorOther, cause: cause}
}

func (e *ReadError) Kind() ReadErrorKind {
	return e.kind
}

func (e *ReadError) Error() string {
	if e.cause != nil {
		return ErrReadFailed.Error() + ": " + e.cause.Error()
	}

	if e.kind == ReadErrorOther {
		return ErrReadFailed.Error()
	}

	return e.kind.String()
}

func (e *ReadError) Unwrap() error {
	return e.cause
}

// Is makes errors.Is(err, ErrCommitNotFound) and errors.Is(err, ErrReadFailed) work for ReadError.
func (e *ReadError) Is(target error) bool {
	switch target {
	case ErrCommitNotFound:
		return e.kind == ReadErrorCommitNotFound
	case ErrReadFailed:
		return e.kind == ReadErrorOther
	default:
		return false
	}
}

// CommitErrorKindOf extracts the kind of a CommitError anywhere in err's chain.
func CommitErrorKindOf(err error) (CommitErrorKind, bool) {
	var commitErr *CommitError
	if errors.As(err, &commitErr) {
		return commitErr.Kind(), true
	}

	return CommitErrorOther, false
}

// ReadErrorKindOf extracts the kind of a ReadError anywhere in err's chain.
func ReadErrorKindOf(err error) (ReadErrorKind, bool) {
	var readErr *ReadError
	if errors.As(err, &readErr) {
		return readErr.Kind(), true
	}

	return ReadErrorOther, false
}

// IsConditionNotMet reports whether err is a failed OCC precondition.
func IsConditionNotMet(err error) bool {
	return errors.Is(err, ErrConditionNotMet)
}
