package normalisers

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/eml"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/json"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// NewDefault creates a registry with every built-in converter.
// A nil runner uses the real pdftotext binary.
func NewDefault(runner driven.CommandRunner) *Registry {
	pdfConverter := pdf.New()
	if runner != nil {
		pdfConverter = pdf.NewWithRunner(runner)
	}
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		json.New(),
		html.New(),
		eml.New(),
		docx.New(),
		pdfConverter,
	)
}
