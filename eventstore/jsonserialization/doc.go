// Package jsonserialization stores events as eventstore.StorableEvent: the event type is the
// rendered revision (e.g. "Created.v0") and the payload is the event encoded as JSON.
//
// Every current and old revision of a schema is registered once, typically in a package-level
// constructor of the domain:
//
//	codec := jsonserialization.NewCodec[Event, OldEvent](Schema)
//	jsonserialization.RegisterEvent[Created](codec)
//	jsonserialization.RegisterOldRevision[DeactivatedWithoutReason](codec)
//	if err := codec.Validate(); err != nil { ... }
//
// Registered types are decoded by value, so their Revision method must have a value receiver.
package jsonserialization
