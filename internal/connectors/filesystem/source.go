// Package filesystem discovers and watches ingestible files on local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultExtensions are the file types discovered during directory ingestion.
var DefaultExtensions = []string{".pdf", ".html", ".txt", ".json", ".docx"}

// DefaultDebounce is the quiet period before watched changes are emitted.
const DefaultDebounce = 500 * time.Millisecond

// Ensure Source implements the interface.
var _ driven.FileSource = (*Source)(nil)

// Source walks and watches directory trees for files matching a doublestar pattern.
// Patterns are matched against the lower-cased, slash-separated relative path.
type Source struct {
	pattern  string
	debounce time.Duration

	mu       sync.Mutex
	closed   bool
	watchers []*fsnotify.Watcher
}

// Option configures a Source.
type Option func(*Source)

// WithPattern sets the doublestar pattern directly.
func WithPattern(pattern string) Option {
	return func(s *Source) {
		if pattern != "" {
			s.pattern = strings.ToLower(pattern)
		}
	}
}

// WithExtensions sets the discovered extensions.
func WithExtensions(exts ...string) Option {
	return func(s *Source) {
		if len(exts) > 0 {
			s.pattern = PatternFor(exts)
		}
	}
}

// WithDebounce sets the watch quiet period. Zero emits changes immediately.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// New creates a filesystem source for the default extensions.
func New(opts ...Option) *Source {
	s := &Source{
		pattern:  PatternFor(DefaultExtensions),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PatternFor builds a recursive doublestar pattern for extensions.
// PatternFor([".pdf", "txt"]) is "**/*.{pdf,txt}".
func PatternFor(exts []string) string {
	seen := make(map[string]bool, len(exts))
	var clean []string
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		clean = append(clean, ext)
	}
	switch len(clean) {
	case 0:
		return "**/*"
	case 1:
		return "**/*." + clean[0]
	default:
		return "**/*.{" + strings.Join(clean, ",") + "}"
	}
}

// Pattern returns the active doublestar pattern.
func (s *Source) Pattern() string {
	return s.pattern
}

// Matches reports whether rel would be discovered.
func (s *Source) Matches(rel string) bool {
	rel = strings.ToLower(filepath.ToSlash(rel))
	ok, err := doublestar.Match(s.pattern, rel)
	return err == nil && ok
}

// Discover walks root and returns the sorted paths of matching files.
// Hidden files and directories are skipped.
func (s *Source) Discover(ctx context.Context, root string) ([]string, []domain.FileFailure, error) {
	if err := checkRoot(root); err != nil {
		return nil, nil, err
	}

	var files []string
	var failures []domain.FileFailure
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Skipping %s: %v", path, err)
			failures = append(failures, domain.FileFailure{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if s.Matches(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, failures, err
	}

	sort.Strings(files)
	return files, failures, nil
}

// Watch listens for changes below root and emits them after the debounce
// quiet period. Subdirectories created while watching are added.
func (s *Source) Watch(ctx context.Context, root string) (<-chan domain.FileChange, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("filesystem source is closed")
	}

	if err := checkRoot(root); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(watcher, root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}

	s.mu.Lock()
	s.watchers = append(s.watchers, watcher)
	s.mu.Unlock()

	out := make(chan domain.FileChange)
	go s.loop(ctx, root, watcher, out)
	return out, nil
}

func (s *Source) loop(ctx context.Context, root string, watcher *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)
	defer s.release(watcher)

	pending := make(map[string]domain.FileChange)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	flush := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			select {
			case out <- pending[p]:
			case <-ctx.Done():
				return false
			}
			delete(pending, p)
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(relTo(root, event.Name)) {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("Watching %s: %v", event.Name, err)
					}
					continue
				}
			}
			change := s.handleFsEvent(root, event)
			if change == nil {
				continue
			}
			pending[change.Path] = merge(pending[change.Path], *change)
			if s.debounce == 0 {
				if !flush() {
					return
				}
				continue
			}
			timer.Reset(s.debounce)

		case <-timer.C:
			if !flush() {
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleFsEvent converts an fsnotify event to a change, or nil when the
// event concerns a directory, a hidden path or a non-matching file.
func (s *Source) handleFsEvent(root string, event fsnotify.Event) *domain.FileChange {
	rel := relTo(root, event.Name)
	if isHidden(rel) || !s.Matches(rel) {
		return nil
	}

	change := &domain.FileChange{Path: event.Name, At: time.Now()}
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change.Type = domain.ChangeDeleted
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		change.Type = domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			change.Type = domain.ChangeCreated
		}
	default:
		return nil
	}
	return change
}

// merge folds a new change into a pending one for the same path.
func merge(prev, next domain.FileChange) domain.FileChange {
	if prev.Path == "" {
		return next
	}
	if prev.Type == domain.ChangeCreated && next.Type == domain.ChangeUpdated {
		next.Type = domain.ChangeCreated
	}
	if prev.Type == domain.ChangeDeleted && next.Type == domain.ChangeCreated {
		next.Type = domain.ChangeUpdated
	}
	return next
}

func (s *Source) release(watcher *fsnotify.Watcher) {
	watcher.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w == watcher {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			break
		}
	}
}

// Close stops every active watch. Later Watch calls fail.
func (s *Source) Close() error {
	s.mu.Lock()
	s.closed = true
	watchers := append([]*fsnotify.Watcher(nil), s.watchers...)
	s.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrNotFound, root)
	}
	return nil
}

// addTree watches dir and every non-hidden directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
