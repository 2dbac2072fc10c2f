package userland

import (
	"errors"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/jsonserialization"
)

// NewCodec returns a JSON codec with every user event revision registered.
func NewCodec() (*jsonserialization.Codec[Event, OldEvent], error) {
	codec := jsonserialization.NewCodec[Event, OldEvent](Schema)

	err := errors.Join(
		jsonserialization.RegisterEvent[Created](codec),
		jsonserialization.RegisterEvent[Renamed](codec),
		jsonserialization.RegisterEvent[Befriended](codec),
		jsonserialization.RegisterEvent[PromotedToAdmin](codec),
		jsonserialization.RegisterEvent[Deactivated](codec),
		jsonserialization.RegisterOldRevision[DeactivatedWithoutReason](codec),
	)
	if err != nil {
		return nil, err
	}

	if err := codec.Validate(); err != nil {
		return nil, err
	}

	return codec, nil
}
