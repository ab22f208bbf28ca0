package dmu

import (
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
)

// Tree rebuilds the outline from records sorted by key. Records whose
// parent key is missing are attached at the top level.
func Tree(title string, records []Record) *doctree.DocTree {
	tree := &doctree.DocTree{Title: title}
	byKey := make(map[string]*doctree.DocNode, len(records))

	for _, r := range records {
		node := &doctree.DocNode{
			Key:   r.Key,
			Style: r.Style,
			Title: Heading(r),
			Text:  r.Description,
		}
		byKey[r.Key] = node

		parent := parentKey(r.Key)
		if p, ok := byKey[parent]; ok && parent != "" {
			p.Children = append(p.Children, node)
		} else {
			tree.Children = append(tree.Children, node)
		}
	}
	return tree
}

// Heading is the display title of a record: the heading text, or
// "label name (age)" for a unit.
func Heading(r Record) string {
	var parts []string
	if r.Label != "" {
		parts = append(parts, r.Label)
	}
	if r.Name != "" {
		parts = append(parts, r.Name)
	}
	if r.Age != "" {
		parts = append(parts, "("+r.Age+")")
	}
	return strings.Join(parts, " ")
}

func parentKey(key string) string {
	i := strings.LastIndex(key, KeySeparator)
	if i < 0 {
		return ""
	}
	return key[:i]
}
