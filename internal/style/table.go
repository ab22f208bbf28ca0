package style

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultTable returns the table for the GeMS DMU Word template styles.
func DefaultTable() *Table {
	t := &Table{exact: make(map[string]Style)}
	for d := 1; d <= 5; d++ {
		t.exact[normalize(Tags(Heading, d, false))] = Style{Kind: Heading, Depth: d}
		t.exact[normalize(Tags(Unit, d, false))] = Style{Kind: Unit, Depth: d}
	}
	t.exact[normalize(Tags(Unit, 1, true))] = Style{Kind: Unit, Depth: 1, FirstAfterHeading: true}
	t.exact[normalize(Tags(Headnote, 0, false))] = Style{Kind: Headnote}
	t.exact[normalize(Tags(Paragraph, 0, false))] = Style{Kind: Paragraph}
	return t
}

// TableFile is the YAML layout of a custom style table.
//
//	styles:
//	  - tag: "Map Unit Level 2"
//	    kind: unit
//	    depth: 2
type TableFile struct {
	Styles []TableEntry `yaml:"styles"`
}

// TableEntry is one style mapping.
type TableEntry struct {
	Tag               string `yaml:"tag"`
	Kind              Kind   `yaml:"kind"`
	Depth             int    `yaml:"depth"`
	FirstAfterHeading bool   `yaml:"first_after_heading"`
}

// UnmarshalYAML decodes a kind from its name.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*k = parsed
	return nil
}

// MarshalYAML encodes a kind as its name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// LoadTable reads a YAML style table and overlays it on DefaultTable.
// An empty path returns the default table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style table %s: %w", path, err)
	}
	var f TableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse style table %s: %w", path, err)
	}
	return DefaultTable().With(f.Styles...)
}

// With returns a copy of t with extra entries. Entries override defaults
// for the same tag.
func (t *Table) With(entries ...TableEntry) (*Table, error) {
	out := &Table{exact: make(map[string]Style, len(t.exact)+len(entries))}
	for k, v := range t.exact {
		out.exact[k] = v
	}
	for i, e := range entries {
		key := normalize(e.Tag)
		if key == "" {
			return nil, fmt.Errorf("style entry %d: tag is required", i)
		}
		s := Style{Kind: e.Kind, Depth: e.Depth, FirstAfterHeading: e.FirstAfterHeading}
		switch e.Kind {
		case Heading, Unit:
			if s.Depth < 1 || s.Depth > MaxDepth {
				return nil, fmt.Errorf("style entry %q: depth %d out of range 1..%d", e.Tag, e.Depth, MaxDepth)
			}
		case Headnote, Paragraph:
			s.Depth = 0
		default:
			return nil, fmt.Errorf("style entry %q: kind is required", e.Tag)
		}
		if s.FirstAfterHeading && (s.Kind != Unit || s.Depth != 1) {
			return nil, fmt.Errorf("style entry %q: first_after_heading applies only to depth-1 units", e.Tag)
		}
		out.exact[key] = s
	}
	return out, nil
}
