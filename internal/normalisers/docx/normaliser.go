// Package docx provides a Converter for Word documents.
// It walks word/document.xml in order, so headings, paragraphs and tables
// keep their relative position, and explicit page breaks advance the page
// counter.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

// errNoDocumentPart is returned for archives without word/document.xml.
var errNoDocumentPart = errors.New("docx: word/document.xml not found")

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "docx"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".docx"}
}

// Convert parses the DOCX package into a structured document.
func (n *Normaliser) Convert(_ context.Context, _ string, data []byte) (domain.ExtractedContent, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("%w: not a zip archive", domain.ErrInvalidInput)
	}

	body, err := readPart(reader, "word/document.xml")
	if err != nil {
		return domain.ExtractedContent{}, err
	}

	elements, err := parseDocumentXML(body)
	if err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	return domain.Structured(&domain.StructuredDocument{
		Title:    extractTitle(reader),
		Elements: elements,
	}), nil
}

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	if name == "word/document.xml" {
		return nil, errNoDocumentPart
	}
	return nil, domain.ErrNotFound
}

var headingStyle = regexp.MustCompile(`(?i)^heading\s*([1-6])$`)

// headingLevel maps a paragraph style id to a heading depth, 0 for body text.
func headingLevel(style string) int {
	switch strings.ToLower(style) {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if m := headingStyle.FindStringSubmatch(style); m != nil {
		level, _ := strconv.Atoi(m[1])
		return level
	}
	return 0
}

// parseDocumentXML streams the body, emitting elements in document order.
func parseDocumentXML(content []byte) ([]domain.Element, error) {
	var (
		elements   []domain.Element
		para, cell strings.Builder
		row        []string
		rows       [][]string
		style      string
		page       = 1
		paraPage   = 1
		tablePage  = 1
		tableDepth int
		inText     bool
	)

	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					rows = nil
					tablePage = page
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				para.Reset()
				style = ""
				paraPage = page
			case "pStyle":
				style = attr(t, "val")
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				if attr(t, "type") == "page" {
					page++
				} else {
					para.WriteString("\n")
				}
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				if tableDepth > 0 {
					if cell.Len() > 0 {
						cell.WriteString(" ")
					}
					cell.WriteString(text)
					continue
				}
				el := domain.Element{Kind: domain.ElementParagraph, Text: text, Page: paraPage}
				if level := headingLevel(style); level > 0 {
					el.Kind = domain.ElementHeading
					el.Level = level
				}
				elements = append(elements, el)
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "tr":
				if tableDepth == 1 && len(row) > 0 {
					rows = append(rows, row)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(rows) > 0 {
					elements = append(elements, domain.Element{
						Kind: domain.ElementTable,
						Rows: rows,
						Text: domain.SerializeTable(rows),
						Page: tablePage,
					})
				}
			}
		}
	}
	return elements, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle extracts the title from docProps/core.xml, "" when absent.
func extractTitle(reader *zip.Reader) string {
	content, err := readPart(reader, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
