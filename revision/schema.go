package revision

import (
	"fmt"
	"reflect"
	"slices"
)

// ConflictError is the panic value of NewSchema when a revision is declared both as current and as old.
type ConflictError struct {
	Revision string
	OldType  string
	NewType  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"conflicting revision in event schema: revision %s appears in both old event type %s and new event type %s, "+
			"ensure the revision of each event is set appropriately",
		e.Revision, e.OldType, e.NewType,
	)
}

// Schema holds the revisions an event type must be able to decode: its current revisions and the
// revisions of its old shapes. Build it once per event type, typically as a package-level variable.
type Schema[V comparable] struct {
	current   Set[V]
	old       Set[V]
	supported Set[V]
}

// NewSchema merges the current revisions of E with the old revisions of O.
//
// The two sets must be disjoint. An overlap is a defect in the event definitions,
// so NewSchema panics with a *ConflictError naming the revision and both types.
func NewSchema[E, O any, V comparable](current Set[V], old Set[V]) Schema[V] {
	if conflicts := current.Intersect(old); conflicts.Len() > 0 {
		panic(&ConflictError{
			Revision: firstConflict(conflicts),
			OldType:  reflect.TypeFor[O]().String(),
			NewType:  reflect.TypeFor[E]().String(),
		})
	}

	return Schema[V]{
		current:   current.Union(nil),
		old:       old.Union(nil),
		supported: current.Union(old),
	}
}

// Current returns the revisions of the current event shapes.
func (s Schema[V]) Current() Set[V] {
	return s.current
}

// Old returns the revisions of the old event shapes.
func (s Schema[V]) Old() Set[V] {
	return s.old
}

// Supported returns all revisions that can be decoded: current ∪ old.
func (s Schema[V]) Supported() Set[V] {
	return s.supported
}

// IsSupported reports whether v is a current or an old revision.
func (s Schema[V]) IsSupported(v V) bool {
	return s.supported.Contains(v)
}

// IsCurrent reports whether v is a current revision.
func (s Schema[V]) IsCurrent(v V) bool {
	return s.current.Contains(v)
}

// firstConflict picks the lexically smallest conflicting revision so the diagnostic is stable.
func firstConflict[V comparable](conflicts Set[V]) string {
	rendered := make([]string, 0, conflicts.Len())
	for v := range conflicts.Values() {
		rendered = append(rendered, fmt.Sprint(v))
	}

	slices.Sort(rendered)

	return rendered[0]
}
