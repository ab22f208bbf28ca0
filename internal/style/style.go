// Package style classifies DMU paragraph style tags and ranks them against
// each other in the outline.
package style

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the outline role of a paragraph.
type Kind int

const (
	Unrecognized Kind = iota
	Heading
	Unit
	Headnote
	Paragraph // continuation of the preceding entry
)

var kindNames = map[Kind]string{
	Unrecognized: "unrecognized",
	Heading:      "heading",
	Unit:         "unit",
	Headnote:     "headnote",
	Paragraph:    "paragraph",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if k != Unrecognized && name == s {
			return k, nil
		}
	}
	return Unrecognized, fmt.Errorf("unknown style kind %q", s)
}

// MaxDepth is the deepest heading or unit level a tag may name.
const MaxDepth = 9

// Style is a classified style tag.
type Style struct {
	Tag               string
	Kind              Kind
	Depth             int  // 1..MaxDepth for headings and units, 0 otherwise
	FirstAfterHeading bool // "DMU Unit 1 (1st after heading)"
}

func (s Style) String() string {
	switch s.Kind {
	case Heading, Unit:
		if s.FirstAfterHeading {
			return fmt.Sprintf("%s%d(first)", s.Kind, s.Depth)
		}
		return fmt.Sprintf("%s%d", s.Kind, s.Depth)
	default:
		return s.Kind.String()
	}
}

// Keyed reports whether paragraphs of this style become outline entries.
func (s Style) Keyed() bool {
	return s.Kind == Heading || s.Kind == Unit || s.Kind == Headnote
}

// ErrUnrecognized is returned by Classify for tags no rule matches.
var ErrUnrecognized = errors.New("unrecognized style tag")

// Table maps style tags to styles. A Table is immutable once built.
type Table struct {
	exact map[string]Style
}

// Classify resolves a style tag: exact table entries first, then the
// substring rules.
func (t *Table) Classify(tag string) (Style, error) {
	key := normalize(tag)
	if key == "" {
		return Style{Tag: tag}, fmt.Errorf("%w: empty tag", ErrUnrecognized)
	}
	if s, ok := t.exact[key]; ok {
		s.Tag = tag
		return s, nil
	}

	s, ok := classifySubstring(key)
	if !ok {
		return Style{Tag: tag}, fmt.Errorf("%w: %q", ErrUnrecognized, tag)
	}
	s.Tag = tag
	return s, nil
}

// Tags returns the canonical tag written for a kind and depth, the inverse
// used when rendering the table back into a document.
func Tags(kind Kind, depth int, first bool) string {
	switch kind {
	case Heading:
		return fmt.Sprintf("DMU-Heading%d", depth)
	case Unit:
		if first && depth == 1 {
			return "DMU Unit 1 (1st after heading)"
		}
		return fmt.Sprintf("DMU Unit %d", depth)
	case Headnote:
		return "DMU Headnote"
	case Paragraph:
		return "DMU Paragraph"
	}
	return ""
}

var (
	headingDepth = regexp.MustCompile(`heading(\d+)`)
	unitDepth    = regexp.MustCompile(`unit(\d+)`)
)

func classifySubstring(key string) (Style, bool) {
	switch {
	case strings.Contains(key, "afterheading") || strings.Contains(key, "firstafter"):
		return Style{Kind: Unit, Depth: 1, FirstAfterHeading: true}, true
	case strings.Contains(key, "headnote"):
		return Style{Kind: Headnote}, true
	case strings.Contains(key, "heading"):
		d, ok := depthOf(headingDepth, key)
		return Style{Kind: Heading, Depth: d}, ok
	case strings.Contains(key, "unit"):
		d, ok := depthOf(unitDepth, key)
		return Style{Kind: Unit, Depth: d}, ok
	case strings.Contains(key, "paragraph"):
		return Style{Kind: Paragraph}, true
	}
	return Style{}, false
}

// depthOf reads the numeral after the category word. A missing numeral
// means depth 1.
func depthOf(re *regexp.Regexp, key string) (int, bool) {
	m := re.FindStringSubmatch(key)
	if m == nil {
		return 1, true
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > MaxDepth {
		return 0, false
	}
	return n, true
}

// normalize lowercases and drops spaces, hyphens and underscores so that
// "DMU-Heading1", "DMU Heading 1" and "dmu_heading_1" compare equal.
func normalize(tag string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
