// Package export renders the DMU table back into documents.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/dgallion1/dmukit/internal/style"
)

// Format is an output document type.
type Format string

const (
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ContentTypes maps formats to HTTP content types.
var ContentTypes = map[Format]string{
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatMarkdown: "text/markdown; charset=utf-8",
	FormatHTML:     "text/html; charset=utf-8",
}

// FormatForFile picks the format from a file extension.
func FormatForFile(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return FormatDOCX, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported export format: %s", filepath.Ext(filename))
}

// Exporter writes table rows as documents. Rows must be in hierarchy key
// order, as store.List returns them.
type Exporter struct {
	Table dmu.Classifier
	Title string
}

// Write renders rows in the given format.
func (e *Exporter) Write(w io.Writer, f Format, rows []store.Row) error {
	switch f {
	case FormatDOCX:
		return e.DOCX(w, rows)
	case FormatMarkdown:
		return e.Markdown(w, rows)
	case FormatHTML:
		return e.HTML(w, rows)
	}
	return fmt.Errorf("unsupported export format: %s", f)
}

// entry is a row with its resolved style. lead is the text of the row's own
// paragraph (the heading name, or the first description line); more holds
// the remaining description lines, each written as a continuation paragraph.
type entry struct {
	row   store.Row
	style style.Style
	lead  string
	more  []string
}

func (e *Exporter) entries(rows []store.Row) ([]entry, error) {
	out := make([]entry, 0, len(rows))
	for _, r := range rows {
		st, err := e.Table.Classify(r.ParagraphStyle)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", r.ID, r.HierarchyKey, err)
		}
		en := entry{row: r, style: st}
		lines := splitLines(r.Description)
		if st.Kind == style.Heading {
			en.lead, en.more = r.Name, lines
		} else {
			en.lead = first(lines)
			if len(lines) > 1 {
				en.more = lines[1:]
			}
		}
		out = append(out, en)
	}
	return out, nil
}

// unitBody formats the part of a unit paragraph after the label:
// "name (age)—description".
func unitBody(r store.Row, desc string) string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Age != "" {
		if r.Name != "" {
			b.WriteByte(' ')
		}
		b.WriteString("(" + r.Age + ")")
	}
	if desc != "" {
		b.WriteString("—")
		b.WriteString(desc)
	}
	return b.String()
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func first(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
