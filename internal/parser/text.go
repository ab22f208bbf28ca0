package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
)

// TextParser handles tab-separated text: one paragraph per line, the style
// tag before the first tab. Blank lines are skipped.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &doctree.Document{Title: titleFromFilename(filename)}
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tag, text, ok := strings.Cut(raw, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: missing tab between style and text", line)
		}
		tag, text = strings.TrimSpace(tag), strings.TrimSpace(text)
		if text == "" {
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, doctree.Paragraph{Index: line, Style: tag, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}
