package export

import (
	"bufio"
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/dgallion1/dmukit/internal/store"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}</body>
</html>
`))

// HTML renders the Markdown export through goldmark as a standalone page.
func (e *Exporter) HTML(w io.Writer, rows []store.Row) error {
	var md bytes.Buffer
	if err := e.Markdown(&md, rows); err != nil {
		return err
	}

	var body bytes.Buffer
	conv := goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe()))
	if err := conv.Convert(md.Bytes(), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	title := e.Title
	if title == "" {
		title = "Description of Map Units"
	}
	bw := bufio.NewWriter(w)
	if err := pageTemplate.Execute(bw, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body.String())}); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return bw.Flush()
}
