// Package pdf provides a Converter that shells out to pdftotext (poppler).
// Form feeds in the tool's output delimit pages, so every element carries
// the page it came from.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Converter = (*Normaliser)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = fmt.Errorf("%w: pdftotext not found in PATH", domain.ErrConverterUnavailable)

// InstallInstructions describes how to install the pdftotext binary.
func InstallInstructions() string {
	return `pdftotext is required to extract PDF documents.
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext cannot be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// execRunner runs real processes.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner    driven.CommandRunner
	checkPath bool
}

// New creates a PDF normaliser backed by the pdftotext binary.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}, checkPath: true}
}

// NewWithRunner creates a PDF normaliser with an injected runner.
// The PATH check is skipped; the runner owns tool resolution.
func NewWithRunner(runner driven.CommandRunner) *Normaliser {
	return &Normaliser{runner: runner}
}

// Name returns the converter name.
func (n *Normaliser) Name() string {
	return "pdf"
}

// Extensions returns the extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".pdf"}
}

// Convert runs pdftotext over the file and returns its pages as paragraphs.
// When path is empty the bytes are spooled to a temporary file first.
func (n *Normaliser) Convert(ctx context.Context, path string, data []byte) (domain.ExtractedContent, error) {
	if n.checkPath {
		if err := CheckAvailable(); err != nil {
			return domain.ExtractedContent{}, err
		}
	}

	if path == "" {
		if len(data) == 0 {
			return domain.ExtractedContent{}, fmt.Errorf("%w: empty pdf", domain.ErrInvalidInput)
		}
		tmp, err := spool(data)
		if err != nil {
			return domain.ExtractedContent{}, err
		}
		defer os.Remove(tmp)
		path = tmp
	}

	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return domain.ExtractedContent{}, ErrPDFToolNotFound
		}
		return domain.ExtractedContent{}, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := string(out)
	return domain.Structured(&domain.StructuredDocument{
		Title:    extractTitle(text, path),
		Elements: parsePages(text),
	}), nil
}

func spool(data []byte) (string, error) {
	f, err := os.CreateTemp("", "sercha-rag-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return f.Name(), nil
}

// parsePages splits pdftotext output on form feeds, then on blank lines.
func parsePages(text string) []domain.Element {
	var elements []domain.Element
	for i, page := range strings.Split(text, "\f") {
		for _, block := range splitParagraphs(page) {
			elements = append(elements, domain.Element{
				Kind: domain.ElementParagraph,
				Text: block,
				Page: i + 1,
			})
		}
	}
	return elements
}

func splitParagraphs(page string) []string {
	var (
		out   []string
		lines []string
	)
	flush := func() {
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
			lines = nil
		}
	}
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	flush()
	return out
}

// extractTitle uses the first short non-empty line, falling back to the filename.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\x00\f"))
		if line == "" || len(line) > 200 {
			continue
		}
		return line
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.NewReplacer("_", " ", "-", " ").Replace(base)
}
