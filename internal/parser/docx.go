package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. The paragraph style ID is the DMU tag;
// italic and bold runs are kept as <i> and <b> markup.
type DOCXParser struct {
	StylePrefix string
}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "dmukit-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &doctree.Document{Title: titleFromFilename(filename)}
	n := 0
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		n++
		tag := docxStyle(para)
		if tag == "" || !hasStylePrefix(tag, p.StylePrefix) {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		out.Paragraphs = append(out.Paragraphs, doctree.Paragraph{Index: n, Style: tag, Text: text})
	}
	return out, nil
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var text strings.Builder
		for _, rc := range run.Children {
			switch c := rc.(type) {
			case *docx.Text:
				text.WriteString(c.Text)
			case *docx.Tab:
				text.WriteByte('\t')
			}
		}
		if text.Len() == 0 {
			continue
		}
		open, closing := runMarkup(run.RunProperties)
		buf.WriteString(open)
		buf.WriteString(text.String())
		buf.WriteString(closing)
	}
	return strings.TrimSpace(mergeAdjacentMarkup(buf.String()))
}

func runMarkup(props *docx.RunProperties) (open, closing string) {
	if props == nil {
		return "", ""
	}
	if props.Bold != nil {
		open += "<b>"
		closing = "</b>" + closing
	}
	if props.Italic != nil {
		open += "<i>"
		closing = "</i>" + closing
	}
	return open, closing
}

// Word splits text into runs freely; rejoin neighbouring runs that carry
// the same formatting.
func mergeAdjacentMarkup(s string) string {
	for _, tag := range []string{"b", "i"} {
		s = strings.ReplaceAll(s, "</"+tag+"><"+tag+">", "")
	}
	return s
}
