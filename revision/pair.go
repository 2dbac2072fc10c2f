package revision

import "fmt"

// Pair is the default revision value: the name of an event variant and its revision number.
//
// Number should be incremented by 1 every time the payload shape of the named variant changes.
type Pair struct {
	Name   string
	Number uint8
}

// NewPair builds a Pair from a variant name and a revision number.
func NewPair(name string, number uint8) Pair {
	return Pair{Name: name, Number: number}
}

// String renders the pair as "Name.vNumber", e.g. "Created.v0".
func (p Pair) String() string {
	return fmt.Sprintf("%s.v%d", p.Name, p.Number)
}

// Newer reports whether p is a later revision of the same variant than other.
func (p Pair) Newer(other Pair) bool {
	return p.Name == other.Name && p.Number > other.Number
}
