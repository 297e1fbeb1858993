package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oligame1/friendly-parakeet/internal/document"
)

// Parser converts raw document bytes into an ordered page sequence.
type Parser interface {
	Parse(r io.Reader, filename string) ([]document.Page, error)
}

// Options carries format-specific parser settings.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go PDF library
	// cannot read the file.
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newPage builds a page with normalized text and detected section markers.
func newPage(number int, raw string) document.Page {
	text := normalizeText(raw)
	return document.Page{
		Number:   number,
		Text:     text,
		Sections: document.FindSections(text),
	}
}

// normalizeText trims every line and drops the blank ones.
func normalizeText(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// pagesFromSegments turns form-feed style segments into pages. The segment
// index is the physical page number; empty segments keep their slot in the
// numbering but produce no page.
func pagesFromSegments(segments []string) []document.Page {
	var pages []document.Page
	for i, seg := range segments {
		p := newPage(i+1, seg)
		if p.Text == "" {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}
