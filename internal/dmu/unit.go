package dmu

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Unit holds the fields parsed out of a unit paragraph.
type Unit struct {
	Label       string
	Name        string
	Age         string
	Description string
}

// delimiter locates the separator between the name/age segment and the
// description. It returns the byte span of the separator.
type delimiter struct {
	name  string
	match func(s string) (start, end int, ok bool)
}

func literal(sep string) func(string) (int, int, bool) {
	return func(s string) (int, int, bool) {
		i := strings.Index(s, sep)
		if i < 0 {
			return 0, 0, false
		}
		return i, i + len(sep), true
	}
}

// descriptionDelimiters are tried in order; the first match wins.
var descriptionDelimiters = []delimiter{
	{name: "em-dash", match: literal("—")},
	{name: "double-hyphen", match: literal("--")},
}

// ParseUnit splits a unit paragraph into label, name, age and description.
//
// The first whitespace-delimited token is the label. The remainder is cut at
// the first description delimiter; before it is "name (age)", after it is
// the description. Words following the age, as in "Granite (Cretaceous) of
// Smith Ridge", are appended to the name. Inline markup is removed from
// label, name and age but kept in the description.
func ParseUnit(text string) Unit {
	label, rest := splitLabel(strings.TrimSpace(text))
	rest = trimLabelSeparator(rest)

	head, desc := rest, ""
	for _, d := range descriptionDelimiters {
		if start, end, ok := d.match(rest); ok {
			head, desc = rest[:start], rest[end:]
			break
		}
	}

	name, age := head, ""
	if i := strings.Index(head, "("); i >= 0 {
		name = head[:i]
		age = head[i+1:]
		if j := strings.LastIndex(age, ")"); j >= 0 {
			// Text after the age stays with the name.
			name += " " + age[j+1:]
			age = age[:j]
		}
	}

	return Unit{
		Label:       StripMarkup(label),
		Name:        StripMarkup(name),
		Age:         StripMarkup(age),
		Description: strings.TrimSpace(desc),
	}
}

// trimLabelSeparator drops the space and optional spaced dash between label
// and name, as in "A1 — Name". A dash glued to the following text starts the
// description of a unit without a name.
func trimLabelSeparator(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for _, dash := range []string{"—", "–"} {
		if after, ok := strings.CutPrefix(s, dash); ok && after != "" && unicode.IsSpace([]rune(after)[0]) {
			return strings.TrimLeftFunc(after, unicode.IsSpace)
		}
	}
	return s
}

// splitLabel cuts at the first whitespace that is not inside a markup tag.
func splitLabel(s string) (label, rest string) {
	inTag := false
	for i, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case unicode.IsSpace(r) && !inTag:
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// StripMarkup removes inline tags such as <i>, <b>, <sup> and decodes
// entities, collapsing runs of whitespace.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Malformed markup: fall back to the raw text.
				return strings.Join(strings.Fields(s), " ")
			}
			break
		}
		if tt == html.TextToken {
			b.Write(z.Text())
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
