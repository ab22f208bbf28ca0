package dmu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/dmukit/internal/style"
)

// KeySeparator joins hierarchy key elements.
const KeySeparator = "-"

type frame struct {
	index    int
	style    style.Style
	children int
}

// keyState is the open outline path after some prefix of the document.
// step never mutates a state; it returns the next one.
type keyState struct {
	stack     []frame
	roots     int
	rootStyle style.Style
}

func (s keyState) path() []int {
	p := make([]int, len(s.stack))
	for i, f := range s.stack {
		p[i] = f.index
	}
	return p
}

// step places the paragraph at index idx with style st. Open entries that
// st outranks are closed; st then becomes the next sibling of an equal
// entry, or the first child of a higher one. Closing every open entry makes
// st a new top-level entry, which is only valid when st ranks equal to the
// previous top-level entry or that entry is a leading headnote.
func (s keyState) step(idx int, st style.Style) (keyState, error) {
	stack := make([]frame, len(s.stack), len(s.stack)+1)
	copy(stack, s.stack)

	rel := style.Lower
	for len(stack) > 0 {
		var err error
		rel, err = style.Compare(stack[len(stack)-1].style, st)
		if err != nil {
			return s, fmt.Errorf("paragraph %d: %w", idx, err)
		}
		if rel != style.Higher {
			break
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 && s.rootStyle.Kind != style.Headnote && !style.IsEqualRank(s.rootStyle, st) {
			return s, &InconsistentRankError{Index: idx, Tag: st.Tag, Prev: s.rootStyle.Tag}
		}
	}
	if rel == style.Equal {
		stack = stack[:len(stack)-1]
	}

	next := keyState{roots: s.roots, rootStyle: s.rootStyle}
	if len(stack) == 0 {
		next.roots++
		next.rootStyle = st
		next.stack = append(stack, frame{index: next.roots, style: st})
		return next, nil
	}

	stack[len(stack)-1].children++
	next.stack = append(stack, frame{index: stack[len(stack)-1].children, style: st})
	return next, nil
}

// BuildKeys assigns a hierarchy path to each style in document order.
// indexes gives the source paragraph index used in error reports; it may be
// nil, in which case positions in styles are reported.
func BuildKeys(styles []style.Style, indexes []int) ([][]int, error) {
	paths := make([][]int, 0, len(styles))
	var state keyState
	for i, st := range styles {
		idx := i
		if indexes != nil {
			idx = indexes[i]
		}
		next, err := state.step(idx, st)
		if err != nil {
			return nil, err
		}
		state = next
		paths = append(paths, state.path())
	}
	return paths, nil
}

// FormatKeys renders paths as strings. Every element is zero-padded to the
// width of the largest element anywhere, so keys sort as plain strings.
func FormatKeys(paths [][]int) []string {
	maxIndex := 0
	for _, p := range paths {
		for _, n := range p {
			maxIndex = max(maxIndex, n)
		}
	}
	width := len(strconv.Itoa(maxIndex))

	keys := make([]string, len(paths))
	for i, p := range paths {
		parts := make([]string, len(p))
		for j, n := range p {
			parts[j] = fmt.Sprintf("%0*d", width, n)
		}
		keys[i] = strings.Join(parts, KeySeparator)
	}
	return keys
}

// IsAncestorKey reports whether key a is a proper ancestor of key b.
func IsAncestorKey(a, b string) bool {
	return strings.HasPrefix(b, a+KeySeparator)
}
