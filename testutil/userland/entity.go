package userland

import (
	"slices"
)

// User is the state folded from a user stream.
type User struct {
	ID                ID
	Name              string
	IsAdmin           bool
	PromotedToAdminBy *ID
	Friends           []ID
	IsDeactivated     bool
}

// Folder builds a User from its events.
type Folder struct{}

// New creates the User from the first event of its stream, which must be Created.
func (Folder) New(id ID, event Event) (User, bool) {
	created, ok := event.(Created)
	if !ok {
		return User{}, false
	}

	return User{ID: id, Name: created.Name, IsAdmin: created.Admin}, true
}

// Fold applies event to user. A second Created is ignored.
func (Folder) Fold(user User, event Event) User {
	switch e := event.(type) {
	case Renamed:
		user.Name = e.NewName
	case Befriended:
		if !slices.Contains(user.Friends, e.User) {
			user.Friends = append(slices.Clone(user.Friends), e.User)
		}
	case PromotedToAdmin:
		by := e.By
		user.IsAdmin = true
		user.PromotedToAdminBy = &by
	case Deactivated:
		user.IsDeactivated = true
	}

	return user
}
