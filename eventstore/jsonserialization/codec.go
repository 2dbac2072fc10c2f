package jsonserialization

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

var (
	// ErrUnknownEventType is returned when a stored event type has no registered decoder.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrRevisionNotInSchema is returned when a registered type's revision is not declared by the schema.
	ErrRevisionNotInSchema = errors.New("revision is not declared by the schema")

	// ErrNotAnEvent is returned when a registered type does not implement the event interface.
	ErrNotAnEvent = errors.New("type does not implement the event interface")

	// ErrDuplicateRevision is returned when a revision is registered twice.
	ErrDuplicateRevision = errors.New("revision is already registered")

	// ErrMissingRevision is returned by Validate when a revision of the schema has no registered type.
	ErrMissingRevision = errors.New("revision of the schema is not registered")

	// ErrUnregisteredRevision is returned when an event of an unregistered revision is serialized.
	ErrUnregisteredRevision = errors.New("revision is not registered")

	// ErrNilEvent is returned when a nil event is serialized.
	ErrNilEvent = errors.New("event is nil")
)

type decoder[E, O any] func(payloadJSON []byte) (revision.OldOrNew[E, O], error)

// Codec serializes events of type E and old revisions of type O to eventstore.StorableEvent.
//
// Register all revisions before the codec is shared. Afterward it is safe for concurrent use.
type Codec[E revision.Revisioned[revision.Pair], O revision.Revisioned[revision.Pair]] struct {
	schema   revision.Schema[revision.Pair]
	decoders map[string]decoder[E, O]
	json     jsoniter.API
}

// NewCodec creates a Codec for the revisions declared by schema.
func NewCodec[E, O revision.Revisioned[revision.Pair]](schema revision.Schema[revision.Pair]) *Codec[E, O] {
	return &Codec[E, O]{
		schema:   schema,
		decoders: make(map[string]decoder[E, O]),
		json:     jsoniter.ConfigCompatibleWithStandardLibrary,
	}
}

// RegisterEvent registers T as the current shape of its revision.
func RegisterEvent[T any, E, O revision.Revisioned[revision.Pair]](codec *Codec[E, O]) error {
	var zero T

	event, ok := any(zero).(E)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotAnEvent, zero)
	}

	rev := event.Revision()
	if !codec.schema.IsCurrent(rev) {
		return fmt.Errorf("%w: %s is not a current revision", ErrRevisionNotInSchema, rev)
	}

	return codec.register(rev, func(payloadJSON []byte) (revision.OldOrNew[E, O], error) {
		var decoded T
		if err := codec.json.Unmarshal(payloadJSON, &decoded); err != nil {
			return revision.OldOrNew[E, O]{}, err
		}

		return revision.New[E, O](any(decoded).(E)), nil
	})
}

// RegisterOldRevision registers T as the shape of an old revision.
func RegisterOldRevision[T any, E, O revision.Revisioned[revision.Pair]](codec *Codec[E, O]) error {
	var zero T

	old, ok := any(zero).(O)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotAnEvent, zero)
	}

	rev := old.Revision()
	if !codec.schema.Old().Contains(rev) {
		return fmt.Errorf("%w: %s is not an old revision", ErrRevisionNotInSchema, rev)
	}

	return codec.register(rev, func(payloadJSON []byte) (revision.OldOrNew[E, O], error) {
		var decoded T
		if err := codec.json.Unmarshal(payloadJSON, &decoded); err != nil {
			return revision.OldOrNew[E, O]{}, err
		}

		return revision.Old[E, O](any(decoded).(O)), nil
	})
}

func (c *Codec[E, O]) register(rev revision.Pair, decode decoder[E, O]) error {
	eventType := rev.String()

	if _, exists := c.decoders[eventType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRevision, eventType)
	}

	c.decoders[eventType] = decode

	return nil
}

// Validate checks that every revision of the schema has a registered type.
func (c *Codec[E, O]) Validate() error {
	var errs []error

	for rev := range c.schema.Supported().Values() {
		if _, ok := c.decoders[rev.String()]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingRevision, rev))
		}
	}

	return errors.Join(errs...)
}

// Serialize encodes the wrapped event as JSON, typed by its revision.
func (c *Codec[E, O]) Serialize(event revision.OldOrNew[E, O]) (eventstore.StorableEvent, error) {
	var rev revision.Pair
	var payload any

	if old, isOld := event.Obsolete(); isOld {
		if any(old) == nil {
			return eventstore.StorableEvent{}, ErrNilEvent
		}

		rev, payload = old.Revision(), old
	} else {
		current, _ := event.Current()
		if any(current) == nil {
			return eventstore.StorableEvent{}, ErrNilEvent
		}

		rev, payload = current.Revision(), current
	}

	eventType := rev.String()
	if _, ok := c.decoders[eventType]; !ok {
		return eventstore.StorableEvent{}, fmt.Errorf("%w: %s", ErrUnregisteredRevision, eventType)
	}

	payloadJSON, err := c.json.Marshal(payload)
	if err != nil {
		return eventstore.StorableEvent{}, err
	}

	return eventstore.BuildStorableEvent(eventType, payloadJSON)
}

// Deserialize decodes the payload into the type registered for its event type.
func (c *Codec[E, O]) Deserialize(serialized eventstore.StorableEvent) (revision.OldOrNew[E, O], error) {
	decode, ok := c.decoders[serialized.EventType]
	if !ok {
		return revision.OldOrNew[E, O]{}, fmt.Errorf("%w: %q", ErrUnknownEventType, serialized.EventType)
	}

	return decode(serialized.PayloadJSON)
}

// Serialization returns the codec as the serializer/deserializer pair of a store.
func (c *Codec[E, O]) Serialization() eventstore.Serialization[E, O, eventstore.StorableEvent] {
	return eventstore.SerializationOf[E, O, eventstore.StorableEvent](c)
}
