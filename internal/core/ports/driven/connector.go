package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Connector reads documents from a source and reports changes to them.
type Connector interface {
	// Validate checks that the source is reachable.
	Validate(ctx context.Context) error

	// FullSync emits every document in the source as a ChangeCreated.
	// Both channels are closed when the scan ends.
	FullSync(ctx context.Context) (<-chan domain.FileChange, <-chan error)

	// Watch emits changes until ctx is cancelled. The channel is closed on exit.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close releases watch resources.
	Close() error
}
