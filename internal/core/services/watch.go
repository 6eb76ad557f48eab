package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// WatchEvent is the outcome of applying one file change.
type WatchEvent struct {
	Change domain.FileChange

	// Result is set for created and updated files.
	Result domain.FileResult

	// Removed is the number of records deleted for a removed file.
	Removed int

	// Err is nil when the change was applied.
	Err error
}

// Watcher keeps a tenant's records in step with a directory.
// Changed files are re-ingested in replace mode, removed files are deleted.
type Watcher struct {
	orchestrator *IngestionOrchestrator
	onEvent      func(WatchEvent)
}

// NewWatcher creates a watcher over the orchestrator's file source.
// onEvent may be nil.
func NewWatcher(o *IngestionOrchestrator, onEvent func(WatchEvent)) *Watcher {
	return &Watcher{
		orchestrator: o.With(WithReplaceExisting(true)),
		onEvent:      onEvent,
	}
}

// Run applies changes below root until ctx is cancelled.
// A cancelled context is a clean stop and returns nil.
func (w *Watcher) Run(ctx context.Context, root, tenant string) error {
	source := w.orchestrator.Source()
	if source == nil {
		return errors.New("no file source configured")
	}
	changes, err := source.Watch(ctx, root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	logger.Info("Watching %s for tenant %s", root, domain.TenantOrDefault(tenant))
	for change := range changes {
		ev := w.apply(ctx, change, tenant)
		if ev.Err != nil {
			logger.Warn("Applying %s of %s: %v", change.Type, change.Path, ev.Err)
		}
		if w.onEvent != nil {
			w.onEvent(ev)
		}
	}
	return nil
}

func (w *Watcher) apply(ctx context.Context, change domain.FileChange, tenant string) WatchEvent {
	ev := WatchEvent{Change: change}
	switch change.Type {
	case domain.ChangeDeleted:
		ev.Removed, ev.Err = w.orchestrator.RemoveFile(ctx, change.Path, tenant)
	default:
		ev.Result = w.orchestrator.IngestFile(ctx, change.Path, tenant)
		ev.Err = ev.Result.Err
	}
	return ev
}
