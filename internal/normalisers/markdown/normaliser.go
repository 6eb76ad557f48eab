// Package markdown provides a Converter that parses Markdown into a
// structured document: ATX headings, fenced code, pipe tables, list items
// and paragraphs.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "markdown"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".md", ".markdown"}
}

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	listLine     = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.*)$`)
	tableDivider = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)
	images       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	emphasis     = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
)

// Convert parses the markdown into elements.
func (n *Normaliser) Convert(_ context.Context, _ string, data []byte) (domain.ExtractedContent, error) {
	p := &parser{}
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		p.line(line)
	}
	p.flush()

	doc := &domain.StructuredDocument{Elements: p.elements}
	for _, el := range doc.Elements {
		if el.Kind == domain.ElementHeading && el.Level == 1 {
			doc.Title = el.Text
			break
		}
	}
	return domain.Structured(doc), nil
}

type parser struct {
	elements  []domain.Element
	paragraph []string
	table     [][]string
	code      []string
	inCode    bool
}

func (p *parser) line(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		if p.inCode {
			p.emit(domain.Element{Kind: domain.ElementCode, Text: strings.Join(p.code, "\n")})
			p.code = nil
			p.inCode = false
			return
		}
		p.flush()
		p.inCode = true
		return
	}
	if p.inCode {
		p.code = append(p.code, line)
		return
	}

	if strings.HasPrefix(trimmed, "|") {
		p.flushParagraph()
		if !tableDivider.MatchString(trimmed) {
			p.table = append(p.table, splitRow(trimmed))
		}
		return
	}
	p.flushTable()

	switch {
	case trimmed == "":
		p.flushParagraph()
	case headingLine.MatchString(trimmed):
		p.flushParagraph()
		m := headingLine.FindStringSubmatch(trimmed)
		p.emit(domain.Element{Kind: domain.ElementHeading, Level: len(m[1]), Text: inline(m[2])})
	case listLine.MatchString(line):
		p.flushParagraph()
		m := listLine.FindStringSubmatch(line)
		p.emit(domain.Element{Kind: domain.ElementListItem, Text: inline(m[1])})
	default:
		p.paragraph = append(p.paragraph, inline(strings.TrimPrefix(trimmed, "> ")))
	}
}

func (p *parser) flush() {
	if p.inCode && len(p.code) > 0 {
		p.emit(domain.Element{Kind: domain.ElementCode, Text: strings.Join(p.code, "\n")})
	}
	p.code = nil
	p.inCode = false
	p.flushParagraph()
	p.flushTable()
}

func (p *parser) flushParagraph() {
	if len(p.paragraph) == 0 {
		return
	}
	p.emit(domain.Element{Kind: domain.ElementParagraph, Text: strings.Join(p.paragraph, " ")})
	p.paragraph = nil
}

func (p *parser) flushTable() {
	if len(p.table) == 0 {
		return
	}
	p.emit(domain.Element{Kind: domain.ElementTable, Rows: p.table, Text: domain.SerializeTable(p.table)})
	p.table = nil
}

func (p *parser) emit(el domain.Element) {
	if strings.TrimSpace(el.Text) == "" {
		return
	}
	p.elements = append(p.elements, el)
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(strings.TrimSuffix(line, "|"), "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = inline(strings.TrimSpace(cells[i]))
	}
	return cells
}

// inline removes inline markdown formatting.
func inline(s string) string {
	s = images.ReplaceAllString(s, "")
	s = links.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = emphasis.ReplaceAllString(s, "$2")
	return strings.TrimSpace(s)
}
