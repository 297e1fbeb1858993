package parser

import (
	"io"
	"strings"

	"github.com/oligame1/friendly-parakeet/internal/document"
)

// TextParser handles plain text files. Form feeds delimit pages, the same
// separator convention pdftotext uses; input without form feeds is a single
// page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return pagesFromSegments(strings.Split(string(data), "\f")), nil
}
