// Package userland is a small user domain used by the tests of all packages: a user stream with
// five current event variants and one old revision (Deactivated without a reason).
package userland

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
)

// ID identifies a user stream.
type ID uuid.UUID

// NewID returns a random user ID.
func NewID() ID {
	return ID(uuid.New())
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

var (
	CreatedV0         = revision.NewPair("Created", 0)
	RenamedV0         = revision.NewPair("Renamed", 0)
	BefriendedV0      = revision.NewPair("Befriended", 0)
	PromotedToAdminV0 = revision.NewPair("PromotedToAdmin", 0)
	DeactivatedV1     = revision.NewPair("Deactivated", 1)

	DeactivatedV0 = revision.NewPair("Deactivated", 0)
)

// Schema holds every revision a user stream may contain.
var Schema = revision.NewSchema[Event, OldEvent](
	revision.NewSet(CreatedV0, RenamedV0, BefriendedV0, PromotedToAdminV0, DeactivatedV1),
	revision.NewSet(DeactivatedV0),
)

// Event is the current shape of user events.
type Event interface {
	Revision() revision.Pair
	isUserEvent()
}

// OldEvent is the union of the obsolete shapes of user events.
type OldEvent interface {
	Revision() revision.Pair
	Convert() revision.OldOrNew[Event, OldEvent]
}

type Created struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

type Renamed struct {
	NewName string `json:"newName"`
}

type Befriended struct {
	User ID `json:"user"`
}

type PromotedToAdmin struct {
	By ID `json:"by"`
}

type Deactivated struct {
	Reason string `json:"reason"`
}

func (Created) Revision() revision.Pair         { return CreatedV0 }
func (Renamed) Revision() revision.Pair         { return RenamedV0 }
func (Befriended) Revision() revision.Pair      { return BefriendedV0 }
func (PromotedToAdmin) Revision() revision.Pair { return PromotedToAdminV0 }
func (Deactivated) Revision() revision.Pair     { return DeactivatedV1 }

func (Created) isUserEvent()         {}
func (Renamed) isUserEvent()         {}
func (Befriended) isUserEvent()      {}
func (PromotedToAdmin) isUserEvent() {}
func (Deactivated) isUserEvent()     {}

// DeactivatedWithoutReason is Deactivated as it was stored before a reason was recorded.
type DeactivatedWithoutReason struct{}

func (DeactivatedWithoutReason) Revision() revision.Pair { return DeactivatedV0 }

func (DeactivatedWithoutReason) Convert() revision.OldOrNew[Event, OldEvent] {
	return revision.New[Event, OldEvent](Deactivated{Reason: ""})
}
