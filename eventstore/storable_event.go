package eventstore

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var ErrEmptyEventType = errors.New("event type must not be empty")
var ErrInvalidPayloadJSON = errors.New("payload json is not valid")

// StorableEvent is the stored form of an event in backends that persist JSON, e.g. postgresengine.
//
// It is built on scalars so backends stay agnostic of the domain event types.
// While its properties are exported, it should only be constructed with BuildStorableEvent.
type StorableEvent struct {
	EventType   string
	PayloadJSON []byte
}

// BuildStorableEvent is a factory method for StorableEvent.
//
// Returns an error if eventType is empty or payloadJSON is not valid JSON.
func BuildStorableEvent(eventType string, payloadJSON []byte) (StorableEvent, error) {
	if eventType == "" {
		return StorableEvent{}, ErrEmptyEventType
	}

	if !jsoniter.Valid(payloadJSON) {
		return StorableEvent{}, ErrInvalidPayloadJSON
	}

	return StorableEvent{
		EventType:   eventType,
		PayloadJSON: payloadJSON,
	}, nil
}
