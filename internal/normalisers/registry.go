package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.Extractor = (*Registry)(nil)

// Registry maps file extensions to converters.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]driven.Converter
}

// NewRegistry creates a registry holding the given converters.
// Later converters replace earlier ones for shared extensions.
func NewRegistry(converters ...driven.Converter) *Registry {
	r := &Registry{byExt: make(map[string]driven.Converter)}
	for _, c := range converters {
		r.Register(c)
	}
	return r
}

// Register adds a converter for all of its extensions.
func (r *Registry) Register(c driven.Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range c.Extensions() {
		r.byExt[normaliseExt(ext)] = c
	}
}

// Supports reports whether ext has a registered converter.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.lookup(ext)
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file and converts it with the converter for its extension.
func (r *Registry) Extract(ctx context.Context, path string) (domain.ExtractedContent, error) {
	unsupported := domain.ExtractedContent{Kind: domain.ContentUnsupported}

	ext := normaliseExt(filepath.Ext(path))
	conv, ok := r.lookup(ext)
	if !ok {
		return unsupported, domain.NewExtractionError(path, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, ext))
	}

	info, err := os.Stat(path)
	if err != nil {
		return unsupported, domain.NewExtractionError(path, err)
	}
	if info.IsDir() {
		return unsupported, domain.NewExtractionError(path, fmt.Errorf("%w: is a directory", domain.ErrInvalidInput))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return unsupported, domain.NewExtractionError(path, err)
	}

	logger.Debug("Extracting %s with %s converter", path, conv.Name())
	content, err := conv.Convert(ctx, path, data)
	if err != nil {
		return unsupported, domain.NewExtractionError(path, fmt.Errorf("%s: %w", conv.Name(), err))
	}
	return content, nil
}

func (r *Registry) lookup(ext string) (driven.Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byExt[normaliseExt(ext)]
	return c, ok
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
