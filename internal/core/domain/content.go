package domain

import "strings"

// ContentKind tags the variant held by ExtractedContent.
type ContentKind int

const (
	// ContentUnsupported marks content no converter could produce.
	ContentUnsupported ContentKind = iota

	// ContentPlainText marks verbatim or pretty-printed text.
	ContentPlainText

	// ContentStructured marks a document tree with headings, tables and pages.
	ContentStructured
)

// String returns the kind name.
func (k ContentKind) String() string {
	switch k {
	case ContentPlainText:
		return "plain_text"
	case ContentStructured:
		return "structured"
	default:
		return "unsupported"
	}
}

// ExtractedContent is the semantic representation of one source file.
// Exactly one of Text or Document is meaningful, selected by Kind.
type ExtractedContent struct {
	Kind     ContentKind
	Text     string
	Document *StructuredDocument
}

// PlainText wraps text as extracted content.
func PlainText(text string) ExtractedContent {
	return ExtractedContent{Kind: ContentPlainText, Text: text}
}

// Structured wraps a document tree as extracted content.
func Structured(doc *StructuredDocument) ExtractedContent {
	return ExtractedContent{Kind: ContentStructured, Document: doc}
}

// Flatten returns the content as a single string regardless of variant.
func (c ExtractedContent) Flatten() string {
	switch c.Kind {
	case ContentPlainText:
		return c.Text
	case ContentStructured:
		if c.Document == nil {
			return ""
		}
		return c.Document.Text()
	default:
		return ""
	}
}

// IsBlank reports whether the content has no non-whitespace text.
func (c ExtractedContent) IsBlank() bool {
	return strings.TrimSpace(c.Flatten()) == ""
}

// ElementKind is the structural role of a document element.
type ElementKind int

const (
	ElementParagraph ElementKind = iota
	ElementHeading
	ElementListItem
	ElementTable
	ElementCode
)

// String returns the element kind name.
func (k ElementKind) String() string {
	switch k {
	case ElementHeading:
		return "heading"
	case ElementListItem:
		return "list_item"
	case ElementTable:
		return "table"
	case ElementCode:
		return "code"
	default:
		return "paragraph"
	}
}

// Element is one structural unit of a StructuredDocument.
type Element struct {
	Kind ElementKind

	// Level is the heading depth (1-6); zero for other kinds.
	Level int

	// Text is the element text. For tables it is the serialised rows.
	Text string

	// Rows holds table cells; nil for other kinds.
	Rows [][]string

	// Page is the 1-based page the element starts on, 0 when unknown.
	Page int
}

// StructuredDocument is the structure-aware tree produced by converters.
type StructuredDocument struct {
	Title    string
	Elements []Element
}

// Pages returns the highest page number seen, 0 when pages are unknown.
func (d *StructuredDocument) Pages() int {
	max := 0
	for _, el := range d.Elements {
		if el.Page > max {
			max = el.Page
		}
	}
	return max
}

// Text flattens the document into paragraphs separated by blank lines.
func (d *StructuredDocument) Text() string {
	parts := make([]string, 0, len(d.Elements))
	for _, el := range d.Elements {
		if t := strings.TrimSpace(el.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// SerializeTable renders rows as pipe-separated lines.
func SerializeTable(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, strings.TrimSpace(cell))
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}
