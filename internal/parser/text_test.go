package parser

import (
	"strings"
	"testing"
)

func TestTextParser_TabSeparated(t *testing.T) {
	input := "DMU-Heading1\tBEDROCK\n\nDMU Unit 1 (1st after heading)\tKg Granite (Cretaceous)—Coarse\nDMU Paragraph\tWeathers to grus.\n"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.tsv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if len(doc.Paragraphs) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(doc.Paragraphs))
	}
	// Index is the source line number.
	wantIdx := []int{1, 3, 4}
	for i, w := range wantIdx {
		if doc.Paragraphs[i].Index != w {
			t.Errorf("paragraph %d: index = %d, want %d", i, doc.Paragraphs[i].Index, w)
		}
	}
	if doc.Paragraphs[1].Text != "Kg Granite (Cretaceous)—Coarse" {
		t.Errorf("unexpected text %q", doc.Paragraphs[1].Text)
	}
}

func TestTextParser_MissingTab(t *testing.T) {
	_, err := (&TextParser{}).Parse(strings.NewReader("DMU Unit 1\tQal Alluvium\nno tab here\n"), "bad.txt")
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 error, got %v", err)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if len(doc.Paragraphs) != 0 {
		t.Errorf("expected 0 paragraphs, got %d", len(doc.Paragraphs))
	}
}

func TestCSVParser_HeaderOptional(t *testing.T) {
	for name, input := range map[string]string{
		"with header":    "style,text\nDMU-Heading1,BEDROCK\n\"DMU Unit 1\",\"Kg Granite, coarse (Cretaceous)\"\n",
		"without header": "DMU-Heading1,BEDROCK\n\"DMU Unit 1\",\"Kg Granite, coarse (Cretaceous)\"\n",
	} {
		doc, err := (&CSVParser{}).Parse(strings.NewReader(input), "dmu.csv")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if len(doc.Paragraphs) != 2 {
			t.Fatalf("%s: expected 2 paragraphs, got %d", name, len(doc.Paragraphs))
		}
		if got := doc.Paragraphs[1]; got.Style != "DMU Unit 1" || got.Text != "Kg Granite, coarse (Cretaceous)" {
			t.Errorf("%s: paragraph 1 = %+v", name, got)
		}
	}
}

func TestCSVParser_SingleColumnRow(t *testing.T) {
	_, err := (&CSVParser{}).Parse(strings.NewReader("DMU-Heading1,BEDROCK\nlonely\n"), "dmu.csv")
	if err == nil {
		t.Error("expected error for single-column row")
	}
}

func TestHTMLParser_ClassIsStyle(t *testing.T) {
	input := `<html><head><title>Map DMU</title><style>p.DMUUnit1 {}</style></head>
<body>
<p class=MsoNormal>Front matter</p>
<p class=DMU-Heading1>BEDROCK</p>
<p class="DMUUnit11stafterheading extra">Kg
  Granite (<i>Cretaceous</i>)—Coarse <b>pink</b> granite</p>
<p data-dmu-style="DMU Unit 1" class=Other>Tb Basalt—Dark</p>
<p class=DMUParagraph>   </p>
</body></html>`
	doc, err := (&HTMLParser{StylePrefix: "DMU"}).Parse(strings.NewReader(input), "map.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Map DMU" {
		t.Errorf("title = %q, want %q", doc.Title, "Map DMU")
	}
	want := []struct{ style, text string }{
		{"DMU-Heading1", "BEDROCK"},
		{"DMUUnit11stafterheading", "Kg Granite (<i>Cretaceous</i>)—Coarse <b>pink</b> granite"},
		{"DMU Unit 1", "Tb Basalt—Dark"},
	}
	if len(doc.Paragraphs) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %v", len(want), len(doc.Paragraphs), stylesOf(doc))
	}
	for i, w := range want {
		if got := doc.Paragraphs[i]; got.Style != w.style || got.Text != w.text {
			t.Errorf("paragraph %d = (%q, %q), want (%q, %q)", i, got.Style, got.Text, w.style, w.text)
		}
	}
	if doc.Paragraphs[0].Index != 2 {
		t.Errorf("heading index = %d, want 2", doc.Paragraphs[0].Index)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.docx", "*parser.DOCXParser"},
		{"a.HTM", "*parser.HTMLParser"},
		{"a.md", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.tsv", "*parser.TextParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if err != nil {
			t.Errorf("ForFile(%q): %v", tt.filename, err)
			continue
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("ForFile(%q) = %s, want %s", tt.filename, got, tt.want)
		}
	}
	if _, err := ForFile("a.pdf", Options{}); err == nil {
		t.Error("expected error for .pdf")
	}
	if IsSupportedExtension("x.pdf") || !IsSupportedExtension("x.DOCX") {
		t.Error("IsSupportedExtension mismatch")
	}
}
