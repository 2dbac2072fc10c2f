package revision

import (
	"iter"
	"maps"
)

// Set is a set of revision values.
type Set[V comparable] map[V]struct{}

// NewSet builds a Set holding the given values.
func NewSet[V comparable](values ...V) Set[V] {
	set := make(Set[V], len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}

	return set
}

// Contains reports whether v is a member of the set.
func (s Set[V]) Contains(v V) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s Set[V]) Len() int {
	return len(s)
}

// Values iterates over the members in unspecified order.
func (s Set[V]) Values() iter.Seq[V] {
	return maps.Keys(s)
}

// Equal reports whether both sets hold exactly the same members.
func (s Set[V]) Equal(other Set[V]) bool {
	if len(s) != len(other) {
		return false
	}

	for v := range s {
		if !other.Contains(v) {
			return false
		}
	}

	return true
}

// Union returns a new set holding the members of s and other.
func (s Set[V]) Union(other Set[V]) Set[V] {
	union := make(Set[V], len(s)+len(other))
	maps.Copy(union, s)
	maps.Copy(union, other)

	return union
}

// Intersect returns a new set holding the members present in both s and other.
func (s Set[V]) Intersect(other Set[V]) Set[V] {
	intersection := make(Set[V])
	for v := range s {
		if other.Contains(v) {
			intersection[v] = struct{}{}
		}
	}

	return intersection
}
