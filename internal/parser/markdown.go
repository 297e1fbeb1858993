package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/oligame1/friendly-parakeet/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Thematic breaks
// (---) delimit pages; headings become plain text lines so project header
// lines written as headings still group correctly.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var segments []string
	var current strings.Builder

	appendLine := func(t string) {
		if t == "" {
			return
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(t)
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.ThematicBreak:
			segments = append(segments, current.String())
			current.Reset()
		case *ast.Heading:
			appendLine(strings.TrimSpace(string(node.Text(src))))
		default:
			appendLine(strings.TrimSpace(blockText(n, src)))
		}
	}
	segments = append(segments, current.String())

	return pagesFromSegments(segments), nil
}

// blockText collects the raw source text of a block node, recursing into
// container blocks until it reaches leaves that carry source lines.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
			buf.WriteByte('\n')
		}
		return buf.String()
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			buf.WriteString(t)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}
