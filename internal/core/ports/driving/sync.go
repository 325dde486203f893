package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SyncOrchestrator keeps the index in step with one document source.
type SyncOrchestrator interface {
	// Sync ingests every document currently in the source.
	Sync(ctx context.Context) (domain.SyncReport, error)

	// Watch applies changes as they happen until ctx is cancelled.
	// onEvent, if non-nil, is called after each change.
	Watch(ctx context.Context, onEvent func(domain.SyncEvent)) error
}

// SyncFactory creates an orchestrator for a directory. Every ingested file
// inherits the tags, language and owner set on template.
type SyncFactory func(root string, template domain.IngestRequest) (SyncOrchestrator, error)
