// Package eml provides a Converter for RFC 822 email messages.
package eml

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

// Normaliser handles EML (email) documents.
type Normaliser struct {
	html *html.Normaliser
}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{html: html.New()}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "eml"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".eml"}
}

// Convert parses the message into a header paragraph followed by the body.
// Plain text parts are preferred over HTML ones.
func (n *Normaliser) Convert(ctx context.Context, path string, data []byte) (domain.ExtractedContent, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	subject := decodeHeader(msg.Header.Get("Subject"))

	var headers []string
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			headers = append(headers, h+": "+v)
		}
	}

	var elements []domain.Element
	if len(headers) > 0 {
		elements = append(elements, domain.Element{
			Kind: domain.ElementParagraph,
			Text: strings.Join(headers, "\n"),
		})
	}

	plain, markup, err := extractBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return domain.ExtractedContent{}, err
	}

	switch {
	case plain != "":
		elements = append(elements, paragraphs(plain)...)
	case markup != "":
		content, err := n.html.Convert(ctx, path, []byte(markup))
		if err != nil {
			return domain.ExtractedContent{}, err
		}
		elements = append(elements, content.Document.Elements...)
	}

	title := subject
	if title == "" {
		title = extractTitleFromURI(path)
	}
	return domain.Structured(&domain.StructuredDocument{Title: title, Elements: elements}), nil
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

// extractBody returns the plain and HTML bodies of a message or part.
func extractBody(contentType string, body io.Reader) (plain, markup string, err error) {
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, parseErr := mime.ParseMediaType(contentType)
	if parseErr != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return extractMultipart(body, params["boundary"])
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", "", fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}
	if mediaType == "text/html" {
		return "", string(raw), nil
	}
	return string(raw), "", nil
}

func extractMultipart(r io.Reader, boundary string) (string, string, error) {
	if boundary == "" {
		return "", "", nil
	}

	var plains, markups []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		ct := part.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/") || strings.HasPrefix(ct, "text/") || ct == "" {
			p, m, err := extractBody(ct, part)
			if err == nil {
				if p != "" {
					plains = append(plains, p)
				}
				if m != "" {
					markups = append(markups, m)
				}
			}
		}
		part.Close()
	}
	return strings.Join(plains, "\n"), strings.Join(markups, "\n"), nil
}

// paragraphs splits text on blank lines.
func paragraphs(text string) []domain.Element {
	var out []domain.Element
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, domain.Element{Kind: domain.ElementParagraph, Text: block})
		}
	}
	return out
}

// extractTitleFromURI extracts a title from the file path.
func extractTitleFromURI(uri string) string {
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	return strings.ReplaceAll(filename, "-", " ")
}
