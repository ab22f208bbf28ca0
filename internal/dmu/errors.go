package dmu

import (
	"errors"
	"fmt"

	"github.com/dgallion1/dmukit/internal/style"
)

var (
	// ErrNoParagraphs means the source held no heading, unit or headnote
	// paragraphs, usually because the wrong document was supplied.
	ErrNoParagraphs = errors.New("no DMU paragraphs found")

	// ErrOrphanContinuation is a continuation paragraph with nothing before
	// it to continue.
	ErrOrphanContinuation = errors.New("continuation paragraph has no preceding entry")
)

// UnrecognizedStyleError reports a paragraph whose style tag cannot be
// classified.
type UnrecognizedStyleError struct {
	Index int
	Tag   string
}

func (e *UnrecognizedStyleError) Error() string {
	return fmt.Sprintf("paragraph %d: unrecognized style %q", e.Index, e.Tag)
}

func (e *UnrecognizedStyleError) Unwrap() error { return style.ErrUnrecognized }

// DuplicateLabelError reports a label produced by more than one unit
// paragraph.
type DuplicateLabelError struct {
	Label string
	First int // paragraph index of the first occurrence
	Index int // paragraph index of the repeat
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("non-unique label %q at paragraphs %d and %d", e.Label, e.First, e.Index)
}

// InconsistentRankError reports a paragraph that cannot be placed in the
// outline: every open entry was closed and the paragraph does not rank
// with the previous top-level entry.
type InconsistentRankError struct {
	Index int
	Tag   string
	Prev  string
}

func (e *InconsistentRankError) Error() string {
	return fmt.Sprintf("paragraph %d: style %q cannot follow top-level style %q", e.Index, e.Tag, e.Prev)
}

// IsDocumentError reports whether err describes a malformed source rather
// than an I/O or storage failure.
func IsDocumentError(err error) bool {
	var (
		us *UnrecognizedStyleError
		dl *DuplicateLabelError
		ir *InconsistentRankError
	)
	return errors.As(err, &us) || errors.As(err, &dl) || errors.As(err, &ir) ||
		errors.Is(err, ErrNoParagraphs) || errors.Is(err, ErrOrphanContinuation) ||
		errors.Is(err, style.ErrIncomparable)
}
