package revision

// OldOrNew holds either a current-shape event (E) or an old revision of one (O).
//
// It is how a stored item is represented before it has been resolved to the newest shape,
// and how either shape is handed to a store for committing. Wrapped events are typically
// interface values, so passing an OldOrNew by value does not copy their payload.
type OldOrNew[E, O any] struct {
	current E
	old     O
	isOld   bool
}

// New wraps a current-shape event.
func New[E, O any](event E) OldOrNew[E, O] {
	return OldOrNew[E, O]{current: event}
}

// Old wraps an old revision of an event.
func Old[E, O any](old O) OldOrNew[E, O] {
	return OldOrNew[E, O]{old: old, isOld: true}
}

// IsOld reports whether an old revision is held.
func (x OldOrNew[E, O]) IsOld() bool {
	return x.isOld
}

// Current returns the current-shape event, if that is what is held.
func (x OldOrNew[E, O]) Current() (E, bool) {
	if x.isOld {
		var zero E
		return zero, false
	}

	return x.current, true
}

// Obsolete returns the old revision, if that is what is held.
func (x OldOrNew[E, O]) Obsolete() (O, bool) {
	if !x.isOld {
		var zero O
		return zero, false
	}

	return x.old, true
}
