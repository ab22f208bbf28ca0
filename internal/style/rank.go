package style

import (
	"errors"
	"fmt"
)

// Relation is the outline rank of one style relative to another.
type Relation int

const (
	Lower  Relation = iota // deeper in the outline
	Equal                  // sibling
	Higher                 // shallower in the outline
)

func (r Relation) String() string {
	switch r {
	case Lower:
		return "lower"
	case Equal:
		return "equal"
	case Higher:
		return "higher"
	}
	return fmt.Sprintf("relation(%d)", int(r))
}

// ErrIncomparable is returned when a style has no outline rank:
// continuation paragraphs and unrecognized tags.
var ErrIncomparable = errors.New("style has no outline rank")

// IsEqualRank reports whether b is a sibling of a when b follows a. Besides
// same kind and depth, a depth-1 unit is equal to a heading (a plain unit
// right after a heading is its sibling); the first unit after a heading is
// exempt so that it nests under the heading.
func IsEqualRank(a, b Style) bool {
	if !a.Keyed() || !b.Keyed() {
		return false
	}
	if a.Kind == b.Kind && a.Depth == b.Depth {
		return true
	}
	return headingPeer(a, b) || headingPeer(b, a)
}

func headingPeer(u, h Style) bool {
	return u.Kind == Unit && u.Depth == 1 && !u.FirstAfterHeading && h.Kind == Heading
}

// IsHigherRank reports whether a is strictly shallower than b. Any heading
// outranks any unit, units outrank headnotes, and within a kind the smaller
// depth wins. The first unit after a heading ranks with the other depth-1
// units.
func IsHigherRank(a, b Style) bool {
	if !a.Keyed() || !b.Keyed() {
		return false
	}
	ka, kb := kindOrder(a.Kind), kindOrder(b.Kind)
	if ka != kb {
		return ka < kb
	}
	return a.Depth < b.Depth
}

// Compare returns the rank of next relative to prev, where next directly
// follows prev in the outline walk. Higher is checked before Equal, so a
// heading after a depth-1 unit closes the unit run, while a plain depth-1
// unit after a heading becomes its sibling.
func Compare(prev, next Style) (Relation, error) {
	if !prev.Keyed() {
		return 0, fmt.Errorf("%w: %s", ErrIncomparable, describe(prev))
	}
	if !next.Keyed() {
		return 0, fmt.Errorf("%w: %s", ErrIncomparable, describe(next))
	}
	switch {
	case IsHigherRank(next, prev):
		return Higher, nil
	case IsEqualRank(prev, next):
		return Equal, nil
	}
	return Lower, nil
}

func kindOrder(k Kind) int {
	switch k {
	case Heading:
		return 0
	case Unit:
		return 1
	case Headnote:
		return 2
	}
	return 3
}

func describe(s Style) string {
	if s.Tag != "" {
		return fmt.Sprintf("%q (%s)", s.Tag, s)
	}
	return s.String()
}
