// Package json provides a Converter that pretty-prints JSON documents
// so they can be chunked and embedded as text.
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

// Indent is the indentation used when re-encoding documents.
const Indent = "  "

// Normaliser handles JSON documents.
type Normaliser struct{}

// New creates a new JSON normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "json"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".json"}
}

// Convert validates and re-indents the document.
// Key order and number formatting are preserved.
func (n *Normaliser) Convert(_ context.Context, _ string, data []byte) (domain.ExtractedContent, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.PlainText(""), nil
	}
	if !json.Valid(data) {
		return domain.ExtractedContent{}, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidInput)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", Indent); err != nil {
		return domain.ExtractedContent{}, fmt.Errorf("indent json: %w", err)
	}
	return domain.PlainText(out.String()), nil
}
