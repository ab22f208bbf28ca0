package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML saved from a word processor, where each DMU
// paragraph is a <p> whose class names its style (class=DMUUnit1). A
// data-dmu-style attribute, when present, takes precedence over the class.
type HTMLParser struct {
	StylePrefix string
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := &doctree.Document{Title: titleFromFilename(filename)}
	if title := findTitle(doc); title != "" {
		out.Title = title
	}

	n := 0
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "head":
				return
			case "p":
				n++
				tag := paragraphStyle(node)
				if tag == "" || !hasStylePrefix(tag, p.StylePrefix) {
					return
				}
				text := strings.Join(strings.Fields(inlineMarkup(node)), " ")
				if text != "" {
					out.Paragraphs = append(out.Paragraphs, doctree.Paragraph{Index: n, Style: tag, Text: text})
				}
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func paragraphStyle(n *html.Node) string {
	var class string
	for _, a := range n.Attr {
		switch a.Key {
		case "data-dmu-style":
			return strings.TrimSpace(a.Val)
		case "class":
			if f := strings.Fields(a.Val); len(f) > 0 {
				class = f[0]
			}
		}
	}
	return class
}

var keptInline = map[string]string{
	"i":      "i",
	"em":     "i",
	"b":      "b",
	"strong": "b",
	"sup":    "sup",
	"sub":    "sub",
}

// inlineMarkup returns the text of n, keeping emphasis and
// super/subscript tags and dropping every other element.
func inlineMarkup(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.Data == "br" {
				buf.WriteByte(' ')
				return
			}
			if tag, ok := keptInline[n.Data]; ok {
				buf.WriteString("<" + tag + ">")
				defer buf.WriteString("</" + tag + ">")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
