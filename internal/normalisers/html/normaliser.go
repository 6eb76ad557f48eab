package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "html"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Convert parses the HTML into a structured document.
func (n *Normaliser) Convert(_ context.Context, _ string, data []byte) (domain.ExtractedContent, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("parse html: %w", err)
	}

	w := &walker{}
	w.walk(root)
	w.flushInline()

	return domain.Structured(&domain.StructuredDocument{
		Title:    w.title,
		Elements: w.elements,
	}), nil
}

// skipped nodes never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Object:   true,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// blocks break inline text runs without producing an element of their own.
var blocks = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true, atom.Div: true,
	atom.Section: true, atom.Article: true, atom.Main: true, atom.Header: true,
	atom.Footer: true, atom.Nav: true, atom.Aside: true, atom.Ul: true,
	atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Blockquote: true, atom.Figure: true, atom.Figcaption: true,
	atom.Form: true, atom.Hr: true, atom.Address: true, atom.Details: true,
	atom.Summary: true,
}

type walker struct {
	title    string
	elements []domain.Element
	inline   strings.Builder
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.inline.WriteString(n.Data)
		return
	case html.ElementNode:
		if w.element(n) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// element handles n and reports whether its children were consumed.
func (w *walker) element(n *html.Node) bool {
	if skipped[n.DataAtom] {
		return true
	}
	if level, ok := headingLevels[n.DataAtom]; ok {
		w.flushInline()
		w.emit(domain.Element{Kind: domain.ElementHeading, Level: level, Text: textContent(n)})
		return true
	}

	switch n.DataAtom {
	case atom.Title:
		if w.title == "" {
			w.title = textContent(n)
		}
		return true
	case atom.P:
		w.flushInline()
		w.emit(domain.Element{Kind: domain.ElementParagraph, Text: textContent(n)})
		return true
	case atom.Li:
		w.flushInline()
		w.emit(domain.Element{Kind: domain.ElementListItem, Text: textContent(n)})
		return true
	case atom.Pre:
		w.flushInline()
		w.emit(domain.Element{Kind: domain.ElementCode, Text: strings.Trim(rawText(n), "\n")})
		return true
	case atom.Table:
		w.flushInline()
		rows := tableRows(n)
		w.emit(domain.Element{Kind: domain.ElementTable, Rows: rows, Text: domain.SerializeTable(rows)})
		return true
	case atom.Br:
		w.inline.WriteString("\n")
		return true
	}

	if blocks[n.DataAtom] {
		w.flushInline()
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		w.flushInline()
		return true
	}
	return false
}

func (w *walker) flushInline() {
	text := collapse(w.inline.String())
	w.inline.Reset()
	if text != "" {
		w.emit(domain.Element{Kind: domain.ElementParagraph, Text: text})
	}
}

func (w *walker) emit(el domain.Element) {
	if strings.TrimSpace(el.Text) == "" {
		return
	}
	w.elements = append(w.elements, el)
}

// textContent returns the whitespace-collapsed text below n.
func textContent(n *html.Node) string {
	return collapse(rawText(n))
}

func rawText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				b.WriteString("\n")
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

// tableRows collects the rows of table, ignoring rows of nested tables.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Tr:
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.DataAtom == atom.Td || cell.DataAtom == atom.Th {
						cells = append(cells, textContent(cell))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			default:
				visit(c)
			}
		}
	}
	visit(table)
	return rows
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
