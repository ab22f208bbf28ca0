package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/dmukit/internal/doctree"
)

func stylesOf(doc *doctree.Document) []string {
	out := make([]string, len(doc.Paragraphs))
	for i, p := range doc.Paragraphs {
		out[i] = p.Style
	}
	return out
}

func TestMarkdownParser_MapsStructureToStyles(t *testing.T) {
	input := `# SURFICIAL DEPOSITS

Deposits of the valley floors.

- Qal Alluvium (Holocene)—Sand and gravel
- Qc Colluvium (Holocene)—Rubble
  - Qcf Fan colluvium (Holocene)—Fans

    > Mapped only where thick.

## Older deposits

- Qt Terrace (Pleistocene)—Gravel
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "dmu.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "dmu" {
		t.Errorf("expected title %q, got %q", "dmu", doc.Title)
	}

	want := []struct{ style, text string }{
		{"DMU-Heading1", "SURFICIAL DEPOSITS"},
		{"DMU Paragraph", "Deposits of the valley floors."},
		{"DMU Unit 1 (1st after heading)", "Qal Alluvium (Holocene)—Sand and gravel"},
		{"DMU Unit 1", "Qc Colluvium (Holocene)—Rubble"},
		{"DMU Unit 2", "Qcf Fan colluvium (Holocene)—Fans"},
		{"DMU Headnote", "Mapped only where thick."},
		{"DMU-Heading2", "Older deposits"},
		{"DMU Unit 1 (1st after heading)", "Qt Terrace (Pleistocene)—Gravel"},
	}
	if len(doc.Paragraphs) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %v", len(want), len(doc.Paragraphs), stylesOf(doc))
	}
	for i, w := range want {
		got := doc.Paragraphs[i]
		if got.Style != w.style || got.Text != w.text {
			t.Errorf("paragraph %d = (%q, %q), want (%q, %q)", i, got.Style, got.Text, w.style, w.text)
		}
		if got.Index != i+1 {
			t.Errorf("paragraph %d: index = %d, want %d", i, got.Index, i+1)
		}
	}
}

func TestMarkdownParser_EmphasisBecomesMarkup(t *testing.T) {
	input := "- Qal Alluvium (Holocene)—Contains *Unio* shells and **gold**\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(doc.Paragraphs))
	}
	want := "Qal Alluvium (Holocene)—Contains <i>Unio</i> shells and <b>gold</b>"
	if got := doc.Paragraphs[0].Text; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestMarkdownParser_EscapesAndRawHTML(t *testing.T) {
	input := "- T<sub>b</sub> Basalt—Flows \\*not emphasis\\*\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "T<sub>b</sub> Basalt—Flows *not emphasis*"
	if got := doc.Paragraphs[0].Text; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestMarkdownParser_ContinuationInsideItem(t *testing.T) {
	input := `- Qal Alluvium—First part.

  Second part.
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := stylesOf(doc)
	if len(got) != 2 || got[0] != "DMU Unit 1" || got[1] != "DMU Paragraph" {
		t.Errorf("styles = %v, want [DMU Unit 1, DMU Paragraph]", got)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Paragraphs) != 0 {
		t.Errorf("expected 0 paragraphs, got %d", len(doc.Paragraphs))
	}
}

func TestMarkdownParser_HeadnoteKeepsHeadingUnitRun(t *testing.T) {
	input := `# INTRUSIVE ROCKS

> Emplaced during the Laramide orogeny.

- Kg Granite (Cretaceous)—Coarse
- Kd Diorite—Dark
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"DMU-Heading1", "DMU Headnote", "DMU Unit 1 (1st after heading)", "DMU Unit 1"}
	got := stylesOf(doc)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("styles = %v, want %v", got, want)
	}
}

func TestMarkdownParser_DeepestHeading(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader("###### Lenses\n"), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stylesOf(doc); len(got) != 1 || got[0] != "DMU-Heading6" {
		t.Errorf("styles = %v, want [DMU-Heading6]", got)
	}
}
