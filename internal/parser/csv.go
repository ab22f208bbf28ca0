package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
)

// CSVParser handles two-column CSV files: style, text. A first row whose
// first cell is "style" is treated as a header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &doctree.Document{Title: titleFromFilename(filename)}
	for i, row := range records {
		line := i + 1
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "style") {
			continue
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("csv row %d: expected style and text columns, got %d", line, len(row))
		}
		tag, text := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if tag == "" || text == "" {
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, doctree.Paragraph{Index: line, Style: tag, Text: text})
	}
	return doc, nil
}
