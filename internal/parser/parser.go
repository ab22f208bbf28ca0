package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/dmukit/internal/doctree"
)

// Parser reads the styled paragraphs of a DMU source document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune the readers that see paragraphs of unrelated styles.
type Options struct {
	// StylePrefix keeps only paragraphs whose style begins with it
	// (case-insensitive). Empty keeps every non-empty paragraph.
	StylePrefix string
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".docx":     true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".txt":      true,
	".tsv":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".docx":
		return &DOCXParser{StylePrefix: opts.StylePrefix}, nil
	case ".html", ".htm":
		return &HTMLParser{StylePrefix: opts.StylePrefix}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".txt", ".tsv":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func hasStylePrefix(style, prefix string) bool {
	return prefix == "" || strings.HasPrefix(strings.ToLower(style), strings.ToLower(prefix))
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
