package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/dmukit/internal/store"
	"github.com/dgallion1/dmukit/internal/style"
	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
)

// DOCX writes one paragraph per row, styled with the row's paragraph style.
// Continuation lines become "DMU Paragraph" paragraphs.
func (e *Exporter) DOCX(w io.Writer, rows []store.Row) error {
	entries, err := e.entries(rows)
	if err != nil {
		return err
	}

	doc := docx.New().WithDefaultTheme()
	cont := style.Tags(style.Paragraph, 0, false)
	for _, en := range entries {
		p := styledParagraph(doc, en.row.ParagraphStyle)
		if en.style.Kind == style.Unit {
			p.AddText(en.row.MapUnit)
			p.Children = append(p.Children, &docx.Run{Children: []interface{}{&docx.Tab{}}})
			addRuns(p, unitBody(en.row, en.lead))
		} else {
			addRuns(p, en.lead)
		}
		for _, line := range en.more {
			addRuns(styledParagraph(doc, cont), line)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func styledParagraph(d *docx.Docx, tag string) *docx.Paragraph {
	p := d.AddParagraph()
	p.Properties = &docx.ParagraphProperties{Style: &docx.Style{Val: tag}}
	return p
}

// addRuns appends s to p, turning <i> and <b> markup into italic and bold
// runs. Other tags are dropped.
func addRuns(p *docx.Paragraph, s string) {
	var italic, bold int
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return
		case html.TextToken:
			text := string(z.Text())
			if text == "" {
				continue
			}
			run := p.AddText(text)
			if italic > 0 {
				run.Italic()
			}
			if bold > 0 {
				run.Bold()
			}
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			d := 1
			if tt == html.EndTagToken {
				d = -1
			}
			switch string(name) {
			case "i", "em":
				italic = max(0, italic+d)
			case "b", "strong":
				bold = max(0, bold+d)
			}
		}
	}
}
