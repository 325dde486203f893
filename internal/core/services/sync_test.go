package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

var _ driven.Connector = (*syncMockConnector)(nil)

// syncMockConnector replays a fixed list of changes.
type syncMockConnector struct {
	changes     []domain.FileChange
	validateErr error
	scanErr     error
	watchErr    error
	closed      bool
}

func (m *syncMockConnector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.validateErr
}

func (m *syncMockConnector) FullSync(ctx context.Context) (<-chan domain.FileChange, <-chan error) {
	out := make(chan domain.FileChange)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range m.changes {
			select {
			case out <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if m.scanErr != nil {
			errs <- m.scanErr
		}
	}()
	return out, errs
}

func (m *syncMockConnector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	out := make(chan domain.FileChange)
	go func() {
		defer close(out)
		for _, c := range m.changes {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *syncMockConnector) Close() error {
	m.closed = true
	return nil
}

func textChange(id, content string) domain.FileChange {
	return domain.FileChange{
		Type:       domain.ChangeCreated,
		Path:       "/docs/" + id,
		DocumentID: id,
		Document:   domain.RawDocument{FileName: "/docs/" + id, MIMEType: "text/plain", Content: []byte(content)},
	}
}

func TestNewSyncOrchestrator(t *testing.T) {
	f := newFixture(t, domain.ModeSimulation)

	_, err := NewSyncOrchestrator(nil, &syncMockConnector{}, domain.IngestRequest{})
	assert.Error(t, err)

	_, err = NewSyncOrchestrator(f.broker, nil, domain.IngestRequest{})
	assert.Error(t, err)

	o, err := NewSyncOrchestrator(f.broker, &syncMockConnector{}, domain.IngestRequest{})
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestSyncOrchestrator_Sync(t *testing.T) {
	f := newFixture(t, domain.ModeSimulation)
	conn := &syncMockConnector{changes: []domain.FileChange{
		textChange("cities.txt", parisText),
		{
			Type:       domain.ChangeCreated,
			Path:       "/docs/report.pdf",
			DocumentID: "report.pdf",
			Document:   domain.RawDocument{FileName: "/docs/report.pdf", MIMEType: "application/pdf", Content: []byte("%PDF")},
		},
	}}

	o, err := NewSyncOrchestrator(f.broker, conn, domain.IngestRequest{Tags: []string{"geo"}, UserID: "u1"})
	require.NoError(t, err)

	report, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)
	assert.Equal(t, f.simStore.Len(), report.Chunks)

	rec, err := f.broker.GetChunk(context.Background(), domain.ChunkID("cities.txt", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"geo"}, rec.Value.Chunk.Tags)
	assert.Equal(t, "u1", rec.Value.Chunk.UserID)
}

func TestSyncOrchestrator_SyncCountsFallbacks(t *testing.T) {
	f := newFixture(t, domain.ModeHybridStorage)
	f.realStore.err = errBackendDown
	conn := &syncMockConnector{changes: []domain.FileChange{textChange("cities.txt", parisText)}}

	o, err := NewSyncOrchestrator(f.broker, conn, domain.IngestRequest{})
	require.NoError(t, err)

	report, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Fallbacks)
}

func TestSyncOrchestrator_SyncFailures(t *testing.T) {
	t.Run("invalid source", func(t *testing.T) {
		f := newFixture(t, domain.ModeSimulation)
		conn := &syncMockConnector{validateErr: errors.New("path does not exist: /nope")}
		o, err := NewSyncOrchestrator(f.broker, conn, domain.IngestRequest{})
		require.NoError(t, err)

		_, err = o.Sync(context.Background())
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("scan error", func(t *testing.T) {
		f := newFixture(t, domain.ModeSimulation)
		conn := &syncMockConnector{
			changes: []domain.FileChange{textChange("cities.txt", parisText)},
			scanErr: errors.New("permission denied"),
		}
		o, err := NewSyncOrchestrator(f.broker, conn, domain.IngestRequest{})
		require.NoError(t, err)

		report, err := o.Sync(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, 1, report.Ingested)
	})

	t.Run("simulated store down", func(t *testing.T) {
		f := newFixture(t, domain.ModeSimulation)
		f.simStore.err = errBackendDown
		conn := &syncMockConnector{changes: []domain.FileChange{textChange("cities.txt", parisText)}}
		o, err := NewSyncOrchestrator(f.broker, conn, domain.IngestRequest{})
		require.NoError(t, err)

		report, err := o.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Failed)
	})
}

func TestSyncOrchestrator_Watch(t *testing.T) {
	f := newFixture(t, domain.ModeSimulation)
	ctx := context.Background()

	_, err := f.broker.Ingest(ctx, domain.IngestRequest{DocumentID: "old.txt", Content: parisText})
	require.NoError(t, err)
	require.NotZero(t, f.simStore.Len())

	conn := &syncMockConnector{changes: []domain.FileChange{
		{Type: domain.ChangeDeleted, Path: "/docs/old.txt", DocumentID: "old.txt"},
		textChange("new.txt", parisText),
	}}
	o, err := NewSyncOrchestrator(f.broker, conn, domain.IngestRequest{})
	require.NoError(t, err)

	var events []domain.SyncEvent
	require.NoError(t, o.Watch(ctx, func(ev domain.SyncEvent) { events = append(events, ev) }))

	require.Len(t, events, 2)
	assert.Equal(t, domain.ChangeDeleted, events[0].Change.Type)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, "new.txt", events[1].Change.DocumentID)
	assert.Positive(t, events[1].Chunks)
	assert.True(t, conn.closed)

	res, err := f.broker.DocumentChunks(ctx, "old.txt")
	require.NoError(t, err)
	assert.Empty(t, res.Value)
}

func TestSyncOrchestrator_WatchErrors(t *testing.T) {
	f := newFixture(t, domain.ModeSimulation)

	o, err := NewSyncOrchestrator(f.broker, &syncMockConnector{watchErr: errors.New("too many open files")}, domain.IngestRequest{})
	require.NoError(t, err)
	assert.Error(t, o.Watch(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	o, err = NewSyncOrchestrator(f.broker, &syncMockConnector{}, domain.IngestRequest{})
	require.NoError(t, err)
	assert.NoError(t, o.Watch(ctx, nil))
}

func TestSyncReport_Add(t *testing.T) {
	var r domain.SyncReport
	r.Add(domain.SyncEvent{Change: domain.FileChange{Type: domain.ChangeCreated}, Chunks: 3, UsedFallback: true})
	r.Add(domain.SyncEvent{Change: domain.FileChange{Type: domain.ChangeDeleted}})
	r.Add(domain.SyncEvent{Skipped: true})
	r.Add(domain.SyncEvent{Err: errors.New("boom")})

	assert.Equal(t, domain.SyncReport{Ingested: 1, Deleted: 1, Skipped: 1, Failed: 1, Chunks: 3, Fallbacks: 1}, r)
}
