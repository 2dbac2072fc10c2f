package eventstore

import (
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

// Serializer turns a current-shape event or an old revision into its stored form S.
type Serializer[E, O, S any] interface {
	Serialize(event revision.OldOrNew[E, O]) (S, error)
}

// Deserializer turns a stored form S back into a current-shape event or an old revision.
type Deserializer[E, O, S any] interface {
	Deserialize(serialized S) (revision.OldOrNew[E, O], error)
}

// Serialization is the matched Serializer/Deserializer pair a store is built with.
type Serialization[E, O, S any] struct {
	Serializer   Serializer[E, O, S]
	Deserializer Deserializer[E, O, S]
}

// NewSerialization pairs a serializer with its deserializer.
func NewSerialization[E, O, S any](serializer Serializer[E, O, S], deserializer Deserializer[E, O, S]) Serialization[E, O, S] {
	return Serialization[E, O, S]{Serializer: serializer, Deserializer: deserializer}
}

// Codec is implemented by types that serialize and deserialize.
type Codec[E, O, S any] interface {
	Serializer[E, O, S]
	Deserializer[E, O, S]
}

// SerializationOf pairs both sides of a codec.
func SerializationOf[E, O, S any](codec Codec[E, O, S]) Serialization[E, O, S] {
	return NewSerialization[E, O, S](codec, codec)
}

// identity stores events as they are.
type identity[E, O any] struct{}

func (identity[E, O]) Serialize(event revision.OldOrNew[E, O]) (revision.OldOrNew[E, O], error) {
	return event, nil
}

func (identity[E, O]) Deserialize(serialized revision.OldOrNew[E, O]) (revision.OldOrNew[E, O], error) {
	return serialized, nil
}

// NoSerialization keeps events in memory as they are committed. It is the default for in-memory stores.
func NoSerialization[E, O any]() Serialization[E, O, revision.OldOrNew[E, O]] {
	return SerializationOf[E, O, revision.OldOrNew[E, O]](identity[E, O]{})
}
