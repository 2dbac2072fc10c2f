package revision

// Converter is implemented by old revision types.
//
// Convert performs one step toward the current shape: it returns either a strictly newer old
// revision or the current-shape event. Every call must yield a strictly newer revision,
// otherwise ConvertUntilNew never terminates.
type Converter[E, O any] interface {
	Convert() OldOrNew[E, O]
}

// OldRevision is the full contract of an old revision type: it has a revision value and converts.
type OldRevision[E, O any, V comparable] interface {
	Revisioned[V]
	Converter[E, O]
}

// Revisioned is implemented by event values that carry a revision value.
type Revisioned[V comparable] interface {
	Revision() V
}

// ConvertUntilNew applies Convert as many times as needed to reach the current shape.
func ConvertUntilNew[E any, O Converter[E, O]](old O) E {
	for {
		next := old.Convert()

		if event, ok := next.Current(); ok {
			return event
		}

		old, _ = next.Obsolete()
	}
}

// ToNew resolves x to the current shape, converting it first if it holds an old revision.
func ToNew[E any, O Converter[E, O]](x OldOrNew[E, O]) E {
	if old, ok := x.Obsolete(); ok {
		return ConvertUntilNew[E](old)
	}

	event, _ := x.Current()

	return event
}
