// Package revision models the shapes ("revisions") an event type goes through over its lifetime.
//
// Every current-shape event variant carries a revision value (by default a Pair of name and number)
// that uniquely identifies its shape. Shapes that are no longer produced by application code live on
// as "old revisions": values of a separate type that know how to convert themselves, one step at a time,
// into a newer shape until the current shape is reached.
//
// Key types:
//   - Pair: The default revision value (name + number)
//   - Set: A set of revision values
//   - OldOrNew: Either a current-shape event or an old revision of one
//   - Converter: One conversion step from an old revision toward the current shape
//   - Schema: The supported revisions of an event type (current ∪ old), checked for overlaps
//   - Never: The old-revision type of event types that have no old revisions yet
//
// Common usage pattern:
//
//	var UserSchema = revision.NewSchema[user.Event, user.OldEvent](
//		revision.NewSet(user.CreatedV0, user.RenamedV0, user.DeactivatedV1),
//		revision.NewSet(user.DeactivatedV0),
//	)
//
//	event := revision.ConvertUntilNew[user.Event](oldEvent)
package revision
