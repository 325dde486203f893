package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator feeds connector changes through the broker.
type SyncOrchestrator struct {
	rag       driving.RAGService
	connector driven.Connector
	template  domain.IngestRequest
	now       func() time.Time
}

// NewSyncOrchestrator creates an orchestrator. Fields set on template are
// copied onto every ingest request; DocumentID and FileName come from the change.
func NewSyncOrchestrator(
	rag driving.RAGService,
	connector driven.Connector,
	template domain.IngestRequest,
) (*SyncOrchestrator, error) {
	if rag == nil {
		return nil, errors.New("rag service is required")
	}
	if connector == nil {
		return nil, errors.New("connector is required")
	}
	return &SyncOrchestrator{
		rag:       rag,
		connector: connector,
		template:  template,
		now:       time.Now,
	}, nil
}

// Sync ingests every document the connector reports.
// Per-file failures are counted, not returned.
func (o *SyncOrchestrator) Sync(ctx context.Context) (domain.SyncReport, error) {
	if err := o.connector.Validate(ctx); err != nil {
		return domain.SyncReport{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	start := o.now()
	var report domain.SyncReport

	changesCh, errsCh := o.connector.FullSync(ctx)
	for change := range changesCh {
		ev := o.apply(ctx, change)
		report.Add(ev)
	}
	report.Duration = o.now().Sub(start)

	if err := <-errsCh; err != nil {
		return report, fmt.Errorf("scan: %w", err)
	}

	logger.Info("Sync complete: %d ingested, %d skipped, %d failed", report.Ingested, report.Skipped, report.Failed)
	return report, nil
}

// Watch applies changes until ctx is cancelled or the connector stops.
func (o *SyncOrchestrator) Watch(ctx context.Context, onEvent func(domain.SyncEvent)) error {
	changesCh, err := o.connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer o.connector.Close() //nolint:errcheck // watcher teardown

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changesCh:
			if !ok {
				return nil
			}
			ev := o.apply(ctx, change)
			if onEvent != nil {
				onEvent(ev)
			}
		}
	}
}

// apply ingests or deletes the document behind one change.
func (o *SyncOrchestrator) apply(ctx context.Context, change domain.FileChange) domain.SyncEvent {
	ev := domain.SyncEvent{Change: change}

	if change.Type == domain.ChangeDeleted {
		logger.Debug("Deleting: %s", change.DocumentID)
		res, err := o.rag.DeleteDocument(ctx, change.DocumentID)
		ev.UsedFallback, ev.Warning = res.UsedFallback, res.Warning
		if err != nil {
			ev.Err = fmt.Errorf("delete %s: %w", change.DocumentID, err)
			logger.Warn("%v", ev.Err)
		}
		return ev
	}

	logger.Debug("Processing: %s", change.Path)
	req := o.template
	req.DocumentID = change.DocumentID
	req.FileName = change.Path

	res, err := o.rag.IngestFile(ctx, change.Document, req)
	ev.UsedFallback, ev.Warning = res.UsedFallback, res.Warning
	switch {
	case domain.IsValidation(err):
		ev.Skipped = true
		logger.Debug("Skipping %s: %v", change.Path, err)
	case err != nil:
		ev.Err = fmt.Errorf("ingest %s: %w", change.Path, err)
		logger.Warn("%v", ev.Err)
	default:
		ev.Chunks = res.Value.ChunksCount
	}
	return ev
}
