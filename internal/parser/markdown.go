package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
	"github.com/dgallion1/dmukit/internal/style"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownParser maps Markdown structure onto DMU styles:
//
//	# .. ######       DMU-Heading1..6
//	list item, level n  DMU Unit n (the first item after a heading is
//	                    DMU Unit 1 (1st after heading))
//	> quote           DMU Headnote
//	other paragraphs  DMU Paragraph (continuation)
//	---               nothing; the next list item is a plain DMU Unit 1
//
// *emphasis* and **strong** become <i> and <b>.
type MarkdownParser struct{}

type mdWalker struct {
	src          []byte
	doc          *doctree.Document
	afterHeading bool
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	w := &mdWalker{src: src, doc: &doctree.Document{Title: titleFromFilename(filename)}}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
	}
	return w.doc, nil
}

func (w *mdWalker) add(tag, text string) {
	if text == "" {
		return
	}
	w.doc.Paragraphs = append(w.doc.Paragraphs, doctree.Paragraph{
		Index: len(w.doc.Paragraphs) + 1,
		Style: tag,
		Text:  text,
	})
}

func (w *mdWalker) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		w.add(style.Tags(style.Heading, node.Level, false), w.inline(node))
		w.afterHeading = true
	case *ast.List:
		w.list(node, 1)
	case *ast.Blockquote:
		w.quote(node)
	case *ast.Paragraph, *ast.TextBlock:
		// Continuations and headnotes never change the outline, so the
		// first list item after "# Heading\n\nintro" or a quoted headnote
		// still opens the heading's unit run.
		w.add(style.Tags(style.Paragraph, 0, false), w.inline(node))
	case *ast.ThematicBreak:
		// "---" ends a heading's unit run: the next list starts with
		// plain DMU Unit 1 items.
		w.afterHeading = false
	case *ast.HTMLBlock:
	default:
		w.add(style.Tags(style.Paragraph, 0, false), strings.TrimSpace(string(n.Text(w.src))))
	}
}

func (w *mdWalker) list(l *ast.List, depth int) {
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				tag := style.Tags(style.Paragraph, 0, false)
				if first {
					tag = style.Tags(style.Unit, depth, w.afterHeading && depth == 1)
					w.afterHeading = false
					first = false
				}
				w.add(tag, w.inline(node))
			case *ast.List:
				w.list(node, depth+1)
			case *ast.Blockquote:
				w.quote(node)
			}
		}
	}
}

func (w *mdWalker) quote(q *ast.Blockquote) {
	tag := style.Tags(style.Headnote, 0, false)
	for c := q.FirstChild(); c != nil; c = c.NextSibling() {
		w.add(tag, w.inline(c))
		tag = style.Tags(style.Paragraph, 0, false)
	}
}

// inline renders the inline children of n, keeping emphasis and raw
// inline HTML as markup.
func (w *mdWalker) inline(n ast.Node) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				buf.Write(util.UnescapePunctuations(node.Segment.Value(w.src)))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(node.Value)
			case *ast.Emphasis:
				tag := "i"
				if node.Level >= 2 {
					tag = "b"
				}
				buf.WriteString("<" + tag + ">")
				walk(node)
				buf.WriteString("</" + tag + ">")
			case *ast.RawHTML:
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					buf.Write(seg.Value(w.src))
				}
			case *ast.CodeSpan:
				buf.Write(node.Text(w.src))
			default:
				walk(node)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}
