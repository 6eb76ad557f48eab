package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// FileSource discovers and watches files below a root directory.
type FileSource interface {
	// Discover returns every matching file below root as a sorted list of paths.
	// Unreadable subtrees are returned as failures and do not abort discovery.
	// A missing or non-directory root is an error matching domain.ErrNotFound.
	Discover(ctx context.Context, root string) ([]string, []domain.FileFailure, error)

	// Matches reports whether a path relative to a root would be discovered.
	Matches(rel string) bool

	// Watch emits debounced changes for matching files below root.
	// The channel closes when ctx is done or the source is closed.
	Watch(ctx context.Context, root string) (<-chan domain.FileChange, error)

	// Close stops every active watch.
	Close() error
}
