package export

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/dgallion1/dmukit/internal/style"
	"golang.org/x/net/html"
)

// maxMarkdownHeading is the deepest ATX heading Markdown has.
const maxMarkdownHeading = 6

// Markdown writes rows in the layout the .md reader understands: headings
// as # lines, units as nested list items, headnotes as block quotes inside
// the item they belong to. A plain depth-1 unit directly after a heading
// (or after the heading's headnotes) is preceded by a thematic break so that
// it stays the heading's sibling.
func (e *Exporter) Markdown(w io.Writer, rows []store.Row) error {
	entries, err := e.entries(rows)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	var (
		open         []entry // ancestors of the current row
		afterHeading bool
	)
	for _, en := range entries {
		for len(open) > 0 && !dmu.IsAncestorKey(open[len(open)-1].row.HierarchyKey, en.row.HierarchyKey) {
			open = open[:len(open)-1]
		}
		units := 0
		for _, o := range open {
			if o.style.Kind == style.Unit {
				units++
			}
		}
		indent := strings.Repeat("  ", units)

		switch en.style.Kind {
		case style.Heading:
			level := min(en.style.Depth, maxMarkdownHeading)
			fmt.Fprintf(bw, "%s %s\n\n", strings.Repeat("#", level), escapeLine(markdownInline(en.lead)))
			for _, line := range en.more {
				fmt.Fprintf(bw, "%s\n\n", escapeLine(markdownInline(line)))
			}
		case style.Unit:
			if afterHeading && units == 0 && !en.style.FirstAfterHeading {
				bw.WriteString("---\n\n")
			}
			fmt.Fprintf(bw, "%s- %s\n\n", indent, markdownUnit(en))
			for _, line := range en.more {
				fmt.Fprintf(bw, "%s  %s\n\n", indent, escapeLine(markdownInline(line)))
			}
		default:
			fmt.Fprintf(bw, "%s> %s\n", indent, escapeLine(markdownInline(en.lead)))
			for _, line := range en.more {
				fmt.Fprintf(bw, "%s>\n%s> %s\n", indent, indent, escapeLine(markdownInline(line)))
			}
			bw.WriteString("\n")
		}
		if en.style.Kind != style.Headnote {
			afterHeading = en.style.Kind == style.Heading
		}
		open = append(open, en)
	}
	return bw.Flush()
}

func markdownUnit(en entry) string {
	var b strings.Builder
	b.WriteString(escapeLine(escapeMarkdown(en.row.MapUnit)))
	b.WriteByte(' ')
	b.WriteString(escapeMarkdown(unitBody(store.Row{Name: en.row.Name, Age: en.row.Age}, "")))
	if en.lead != "" {
		b.WriteString("—")
		b.WriteString(markdownInline(en.lead))
	}
	return b.String()
}

// markdownInline converts <i> and <b> markup to Markdown emphasis and
// escapes the text around it. Other tags pass through as inline HTML.
func markdownInline(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.WriteString(escapeMarkdown(string(z.Text())))
		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "i", "em":
				b.WriteString("*")
			case "b", "strong":
				b.WriteString("**")
			default:
				b.Write(z.Raw())
			}
		case html.SelfClosingTagToken:
			b.Write(z.Raw())
		}
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"&", `\&`,
	"|", `\|`,
	"~", `\~`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Characters that open a block when they start a line.
var blockStart = regexp.MustCompile(`^(\d+)([.)])|^([-+=])`)

func escapeLine(s string) string {
	m := blockStart.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	if m[2] >= 0 {
		// "1." -> "1\."
		return s[:m[4]] + `\` + s[m[4]:]
	}
	return `\` + s
}
