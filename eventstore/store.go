package eventstore

// Store hands out write and read handles for streams identified by K.
//
// A stream that was never written to is an empty stream. All handles for the same id
// share the same underlying storage.
type Store[K comparable, E, O any] interface {
	WriteStream(id K) WriteStream[E, O]
	ReadStream(id K) ReadStream[E, O]
}
