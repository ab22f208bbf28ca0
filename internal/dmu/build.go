// Package dmu turns a styled paragraph sequence into Description of Map
// Units records with hierarchy keys.
package dmu

import (
	"fmt"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
	"github.com/dgallion1/dmukit/internal/style"
)

// Record is one DMU table row derived from a heading, unit or headnote
// paragraph.
type Record struct {
	Index       int    `json:"paragraph"`
	Label       string `json:"label"`
	Name        string `json:"name"`
	Age         string `json:"age"`
	Description string `json:"description"`
	Style       string `json:"paragraph_style"`
	Kind        string `json:"kind"`
	Key         string `json:"hierarchy_key"`
	Path        []int  `json:"-"`
}

// Classifier resolves style tags. *style.Table implements it.
type Classifier interface {
	Classify(tag string) (style.Style, error)
}

// Build classifies the paragraphs, parses unit text, checks label
// uniqueness and assigns hierarchy keys. Any error aborts the whole run and
// no records are returned.
func Build(paragraphs []doctree.Paragraph, table Classifier) ([]Record, error) {
	var (
		records []Record
		styles  []style.Style
		indexes []int
	)

	for _, p := range paragraphs {
		st, err := table.Classify(p.Style)
		if err != nil {
			return nil, &UnrecognizedStyleError{Index: p.Index, Tag: p.Style}
		}

		if st.Kind == style.Paragraph {
			if len(records) == 0 {
				return nil, fmt.Errorf("paragraph %d: %w", p.Index, ErrOrphanContinuation)
			}
			last := &records[len(records)-1]
			last.Description = joinText(last.Description, strings.TrimSpace(p.Text))
			continue
		}

		records = append(records, newRecord(p, st))
		styles = append(styles, st)
		indexes = append(indexes, p.Index)
	}

	if len(records) == 0 {
		return nil, ErrNoParagraphs
	}
	if err := checkLabels(records); err != nil {
		return nil, err
	}

	paths, err := BuildKeys(styles, indexes)
	if err != nil {
		return nil, err
	}
	keys := FormatKeys(paths)
	for i := range records {
		records[i].Path = paths[i]
		records[i].Key = keys[i]
	}
	return records, nil
}

func newRecord(p doctree.Paragraph, st style.Style) Record {
	rec := Record{Index: p.Index, Style: p.Style, Kind: st.Kind.String()}
	switch st.Kind {
	case style.Unit:
		u := ParseUnit(p.Text)
		rec.Label, rec.Name, rec.Age, rec.Description = u.Label, u.Name, u.Age, u.Description
	case style.Heading:
		rec.Name = StripMarkup(p.Text)
	case style.Headnote:
		rec.Description = strings.TrimSpace(p.Text)
	}
	return rec
}

func checkLabels(records []Record) error {
	seen := make(map[string]int)
	for _, r := range records {
		if r.Label == "" {
			continue
		}
		if first, ok := seen[r.Label]; ok {
			return &DuplicateLabelError{Label: r.Label, First: first, Index: r.Index}
		}
		seen[r.Label] = r.Index
	}
	return nil
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}
