// Package plaintext provides a Converter that reads text files verbatim.
package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "plaintext"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv"}
}

// Convert returns the file content unchanged.
// Content must be valid UTF-8.
func (n *Normaliser) Convert(_ context.Context, _ string, data []byte) (domain.ExtractedContent, error) {
	if !utf8.Valid(data) {
		return domain.ExtractedContent{}, fmt.Errorf("%w: content is not valid UTF-8", domain.ErrInvalidInput)
	}
	return domain.PlainText(string(data)), nil
}
