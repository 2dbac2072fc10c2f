package revision

// Never is the old revision type of event types that have no old revisions yet.
//
// No type can implement it (the never method is unexported and unimplemented), so the only
// value it can hold is nil and none of its methods can ever be reached through a real value.
type Never[E any, V comparable] interface {
	Revision() V
	Convert() OldOrNew[E, Never[E, V]]
	never()
}

// NoRevisions returns the (empty) revision set of Never.
func NoRevisions[V comparable]() Set[V] {
	return NewSet[V]()
}
