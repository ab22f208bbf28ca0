package doctree

// Document is the ordered paragraph sequence read from a DMU source file.
type Document struct {
	Title      string      // Document title (from metadata or filename)
	Paragraphs []Paragraph // In original document order
}

// Paragraph is one styled paragraph of a DMU source.
type Paragraph struct {
	Index int    // Position in the source, used in error reports
	Style string // Style tag, e.g. "DMU-Heading1", "DMU Unit 2"
	Text  string // Raw text, may carry <i>/<b> inline markup
}

// DocTree is the DMU outline rebuilt from hierarchy keys.
type DocTree struct {
	Title    string
	Children []*DocNode // Top-level nodes
}

// DocNode is one outline entry.
type DocNode struct {
	Key      string // Formatted hierarchy key
	Style    string // Paragraph style the entry was written with
	Title    string // Heading text, or "label name (age)" for units
	Text     string // Description
	Children []*DocNode
}

// Walk visits every node depth-first in document order.
func (t *DocTree) Walk(fn func(n *DocNode, depth int)) {
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(t.Children, 1)
}
