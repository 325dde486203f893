package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Broker implements the interface.
var _ driving.RAGService = (*Broker)(nil)

// DefaultPingTimeout bounds each backend ping in TestConnections.
const DefaultPingTimeout = 5 * time.Second

// Backend components reported in fallback warnings and metrics.
const (
	componentEmbeddings = "embeddings"
	componentStore      = "store"
)

// Backends are the collaborators a Broker dispatches to.
// The chunker and both simulated backends are required; real backends,
// normalisers and metrics are optional.
type Backends struct {
	Chunker             driven.Chunker
	Normalisers         driven.NormaliserRegistry
	SimulatedEmbeddings driven.EmbeddingProvider
	RealEmbeddings      driven.EmbeddingProvider
	SimulatedStore      driven.VectorStore
	RealStore           driven.VectorStore
	Metrics             driven.MetricsRecorder
}

// Validate checks that the required backends are present.
func (b Backends) Validate() error {
	var missing []string
	if b.Chunker == nil {
		missing = append(missing, "Chunker")
	}
	if b.SimulatedEmbeddings == nil {
		missing = append(missing, "SimulatedEmbeddings")
	}
	if b.SimulatedStore == nil {
		missing = append(missing, "SimulatedStore")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing backends: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// Broker dispatches each call to the real or simulated embedding provider
// and vector store selected by its mode. When a selected real backend fails,
// the call is retried once on the simulated backend and the Result reports
// the degradation.
type Broker struct {
	mu   sync.RWMutex
	mode domain.Mode

	backends    Backends
	metrics     driven.MetricsRecorder
	validate    *validator.Validate
	newID       func() string
	pingTimeout time.Duration
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithMode sets the initial mode. Invalid modes are ignored.
func WithMode(m domain.Mode) BrokerOption {
	return func(b *Broker) {
		if m.IsValid() {
			b.mode = m
		}
	}
}

// WithIDGenerator sets the generator for document IDs missing from requests.
func WithIDGenerator(fn func() string) BrokerOption {
	return func(b *Broker) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithPingTimeout sets the per-backend ping timeout.
func WithPingTimeout(d time.Duration) BrokerOption {
	return func(b *Broker) {
		if d > 0 {
			b.pingTimeout = d
		}
	}
}

// NewBroker creates a broker in simulation mode unless WithMode says otherwise.
func NewBroker(backends Backends, opts ...BrokerOption) (*Broker, error) {
	if err := backends.Validate(); err != nil {
		return nil, err
	}

	b := &Broker{
		mode:        domain.ModeSimulation,
		backends:    backends,
		metrics:     backends.Metrics,
		validate:    newValidator(),
		newID:       uuid.NewString,
		pingTimeout: DefaultPingTimeout,
	}
	if b.metrics == nil {
		b.metrics = nopMetrics{}
	}

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// newValidator reports struct fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ==================== Mode ====================

// Mode returns the current mode.
func (b *Broker) Mode() domain.Mode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mode
}

// SetMode selects real or simulated backends for subsequent calls.
func (b *Broker) SetMode(embeddingsReal, storeReal bool) {
	b.swap(domain.ModeFor(embeddingsReal, storeReal))
}

// SetModeValue switches to m.
func (b *Broker) SetModeValue(m domain.Mode) error {
	if !m.IsValid() {
		return domain.NewValidationError("mode", fmt.Errorf("%w: %q", domain.ErrInvalidMode, m))
	}
	b.swap(m)
	return nil
}

// ToggleMode switches to the named mode and describes the change.
func (b *Broker) ToggleMode(name string) (domain.ModeChange, error) {
	m, err := domain.ParseMode(name)
	if err != nil {
		return domain.ModeChange{}, domain.NewValidationError("mode", err)
	}

	prev := b.swap(m)
	msg := fmt.Sprintf("Switched from %s to %s", prev.Label(), m.Label())
	if prev == m {
		msg = fmt.Sprintf("Already in %s", m.Label())
	}

	var unconfigured []string
	if m.RealEmbeddings() && b.backends.RealEmbeddings == nil {
		unconfigured = append(unconfigured, "embeddings")
	}
	if m.RealStore() && b.backends.RealStore == nil {
		unconfigured = append(unconfigured, "store")
	}
	if len(unconfigured) > 0 {
		msg += fmt.Sprintf(" (real %s not configured, calls will fall back to simulation)",
			strings.Join(unconfigured, " and "))
	}

	return domain.ModeChange{Previous: prev, Current: m, Message: msg}, nil
}

func (b *Broker) swap(m domain.Mode) domain.Mode {
	b.mu.Lock()
	prev := b.mode
	b.mode = m
	b.mu.Unlock()

	if prev != m {
		logger.Info("Broker mode: %s -> %s", prev.Label(), m.Label())
	}
	return prev
}

// ==================== Ingest ====================

// Ingest chunks, embeds and stores a document. Existing chunks of the same
// document ID are replaced in one store write, so a failed write leaves the
// previous version in place.
func (b *Broker) Ingest(ctx context.Context, req domain.IngestRequest) (domain.Result[domain.IngestResult], error) {
	c := b.begin("ingest")
	v, err := b.ingest(ctx, c, req)
	return finish(c, v, err)
}

// IngestFile normalises a raw file to text and ingests it. Fields already set
// in req take precedence over those derived from raw.
func (b *Broker) IngestFile(
	ctx context.Context, raw domain.RawDocument, req domain.IngestRequest,
) (domain.Result[domain.IngestResult], error) {
	res, err := b.normalise(ctx, &raw)
	if err != nil {
		return domain.Result[domain.IngestResult]{}, err
	}

	req.Content = res.Text
	if req.Title == "" {
		req.Title = res.Title
	}
	if req.FileName == "" {
		req.FileName = raw.FileName
	}
	if req.MIMEType == "" {
		req.MIMEType = raw.MIMEType
	}
	return b.Ingest(ctx, req)
}

func (b *Broker) normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if b.backends.Normalisers == nil {
		if raw.MIMEType != "" && !strings.HasPrefix(raw.MIMEType, "text/") {
			return nil, domain.NewValidationError("mime_type", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType))
		}
		return &driven.NormaliseResult{Title: raw.FileName, Text: string(raw.Content)}, nil
	}

	res, err := b.backends.Normalisers.Normalise(ctx, raw)
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		return nil, domain.NewValidationError("mime_type", err)
	case err != nil:
		return nil, domain.NewValidationError("content", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
	}
	return res, nil
}

func (b *Broker) ingest(ctx context.Context, c *call, req domain.IngestRequest) (domain.IngestResult, error) {
	start := time.Now()
	if err := b.validateRequest(req); err != nil {
		return domain.IngestResult{}, err
	}

	id := req.DocumentID
	if id == "" {
		id = b.newID()
	}
	title := req.Title
	if title == "" {
		title = req.FileName
	}

	chunks := b.backends.Chunker.Chunk(id, req.Content, title)
	for i := range chunks {
		if req.Language != "" {
			chunks[i].Language = req.Language
		}
		chunks[i].UserID = req.UserID
		chunks[i].Tags = slices.Clone(req.Tags)
	}
	logger.Debug("Document %s: %d chunks", id, len(chunks))

	var embeddings []domain.Embedding
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Content
		}

		var err error
		embeddings, err = withEmbeddings(ctx, c, func(p driven.EmbeddingProvider) ([]domain.Embedding, error) {
			return p.EmbedBatch(ctx, texts, domain.TaskDocument, title)
		})
		if err != nil {
			return domain.IngestResult{}, err
		}
	}

	if _, err := withStore(ctx, c, func(s driven.VectorStore) (struct{}, error) {
		return struct{}{}, s.ReplaceDocument(ctx, id, chunks, embeddings)
	}); err != nil {
		return domain.IngestResult{}, err
	}

	return domain.IngestResult{
		DocumentID:          id,
		ChunksCount:         len(chunks),
		EmbeddingsGenerated: len(embeddings),
		ProcessingTime:      time.Since(start),
		Chunks:              chunks,
	}, nil
}

func (b *Broker) validateRequest(req domain.IngestRequest) error {
	err := b.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(fe.Field(), fmt.Errorf("%w: failed %q check", domain.ErrInvalidInput, fe.Tag()))
	}
	return domain.NewValidationError("request", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
}

// ==================== Queries ====================

// Search embeds query and ranks stored chunks against it.
func (b *Broker) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (domain.Result[[]domain.SearchResult], error) {
	c := b.begin("search")
	v, err := b.search(ctx, c, query, opts)
	return finish(c, v, err)
}

func (b *Broker) search(ctx context.Context, c *call, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q (limit %d, threshold %.2f)", query, opts.EffectiveLimit(), opts.Threshold)

	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", domain.ErrEmptyText)
	}

	emb, err := withEmbeddings(ctx, c, func(p driven.EmbeddingProvider) (domain.Embedding, error) {
		return p.EmbedQuery(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	results, err := withStore(ctx, c, func(s driven.VectorStore) ([]domain.SearchResult, error) {
		return s.SearchSimilar(ctx, emb.Values, opts)
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Search returned %d results", len(results))
	return results, nil
}

// DocumentChunks returns a document's stored chunks ordered by index.
func (b *Broker) DocumentChunks(ctx context.Context, documentID string) (domain.Result[[]domain.VectorRecord], error) {
	c := b.begin("document_chunks")
	v, err := withStore(ctx, c, func(s driven.VectorStore) ([]domain.VectorRecord, error) {
		return s.GetDocumentChunks(ctx, documentID)
	})
	return finish(c, v, err)
}

// GetChunk returns one stored chunk, or an error matching domain.ErrNotFound.
func (b *Broker) GetChunk(ctx context.Context, chunkID string) (domain.Result[*domain.VectorRecord], error) {
	c := b.begin("get_chunk")
	v, err := withStore(ctx, c, func(s driven.VectorStore) (*domain.VectorRecord, error) {
		return s.GetChunk(ctx, chunkID)
	})
	return finish(c, v, err)
}

// DeleteDocument removes every chunk of a document.
func (b *Broker) DeleteDocument(ctx context.Context, documentID string) (domain.Result[struct{}], error) {
	c := b.begin("delete_document")
	v, err := withStore(ctx, c, func(s driven.VectorStore) (struct{}, error) {
		return struct{}{}, s.DeleteDocument(ctx, documentID)
	})
	return finish(c, v, err)
}

// DeleteChunk removes one chunk.
func (b *Broker) DeleteChunk(ctx context.Context, chunkID string) (domain.Result[struct{}], error) {
	c := b.begin("delete_chunk")
	v, err := withStore(ctx, c, func(s driven.VectorStore) (struct{}, error) {
		return struct{}{}, s.DeleteChunk(ctx, chunkID)
	})
	return finish(c, v, err)
}

// ==================== Status ====================

// Stats reports index statistics from the selected store, backend
// connectivity and the projected monthly cost of the index.
func (b *Broker) Stats(ctx context.Context) (domain.Result[domain.SystemStats], error) {
	c := b.begin("stats")
	index, err := withStore(ctx, c, func(s driven.VectorStore) (domain.IndexStats, error) {
		return s.IndexStats(ctx)
	})
	if err != nil {
		return finish(c, domain.SystemStats{}, err)
	}

	stats := domain.SystemStats{
		Mode:        c.mode.Label(),
		Index:       index,
		Connections: b.TestConnections(ctx),
		Cost:        domain.EstimateCost(domain.UsageForChunks(index.TotalChunks)),
		Health:      domain.HealthHealthy,
	}
	if c.fellBack {
		stats.Mode = domain.FallbackSimulationLabel
	}
	if c.fellBack || (c.mode.RealEmbeddings() && !stats.Connections.Embeddings.Real) {
		stats.Health = domain.HealthDegraded
	}

	return finish(c, stats, nil)
}

// pinger is the reachability half of a backend.
type pinger interface {
	Ping(ctx context.Context) error
}

// TestConnections pings every backend concurrently, each bounded by the
// ping timeout, and recommends a mode from the real backends that answered.
func (b *Broker) TestConnections(ctx context.Context) domain.ConnectionReport {
	targets := []pinger{
		b.backends.RealEmbeddings,
		b.backends.SimulatedEmbeddings,
		b.backends.RealStore,
		b.backends.SimulatedStore,
	}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = b.ping(ctx, target)
		}()
	}
	wg.Wait()

	health := func(realErr, simErr error) domain.BackendHealth {
		h := domain.BackendHealth{Real: realErr == nil, Simulated: simErr == nil}
		if realErr != nil {
			h.Error = realErr.Error()
		}
		return h
	}

	report := domain.ConnectionReport{
		Embeddings:  health(errs[0], errs[1]),
		Store:       health(errs[2], errs[3]),
		CurrentMode: b.Mode(),
	}
	report.Recommendations = domain.Recommendations(report.Embeddings.Real, report.Store.Real)

	logger.Debug("Connections: embeddings real=%v store real=%v", report.Embeddings.Real, report.Store.Real)
	return report
}

func (b *Broker) ping(ctx context.Context, p pinger) error {
	if p == nil {
		return domain.ErrBackendNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, b.pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// EstimateCost prices a usage volume.
func (b *Broker) EstimateCost(usage domain.Usage) domain.CostEstimate {
	return domain.EstimateCost(usage)
}

// Close closes every backend.
func (b *Broker) Close() error {
	closers := []interface{ Close() error }{
		b.backends.RealEmbeddings,
		b.backends.SimulatedEmbeddings,
		b.backends.RealStore,
		b.backends.SimulatedStore,
	}

	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ==================== Fallback ====================

// call tracks the mode snapshot and fallback state of one broker operation.
type call struct {
	b        *Broker
	op       string
	mode     domain.Mode
	start    time.Time
	fellBack bool
	warnings []string
}

func (b *Broker) begin(op string) *call {
	return &call{b: b, op: op, mode: b.Mode(), start: time.Now()}
}

func (c *call) fallback(component string, cause error) {
	msg := fmt.Sprintf("%s: real %s failed, used simulated fallback: %v", c.op, component, cause)
	logger.Warn("%s", msg)
	c.fellBack = true
	c.warnings = append(c.warnings, msg)
	c.b.metrics.ObserveFallback(c.op, component)
}

func finish[T any](c *call, v T, err error) (domain.Result[T], error) {
	c.b.metrics.ObserveOperation(c.op, c.mode, c.fellBack, err != nil, time.Since(c.start))

	res := domain.Result[T]{UsedFallback: c.fellBack, Warning: strings.Join(c.warnings, "; ")}
	if err != nil {
		if errors.Is(err, domain.ErrCoreUnavailable) {
			logger.Error("%v", err)
		}
		return res, err
	}
	res.Value = v
	return res, nil
}

func withEmbeddings[T any](ctx context.Context, c *call, fn func(driven.EmbeddingProvider) (T, error)) (T, error) {
	var real func() (T, error)
	if p := c.b.backends.RealEmbeddings; p != nil {
		real = func() (T, error) { return fn(p) }
	}
	return attempt(ctx, c, componentEmbeddings, c.mode.RealEmbeddings(), real, func() (T, error) {
		return fn(c.b.backends.SimulatedEmbeddings)
	})
}

func withStore[T any](ctx context.Context, c *call, fn func(driven.VectorStore) (T, error)) (T, error) {
	var real func() (T, error)
	if s := c.b.backends.RealStore; s != nil {
		real = func() (T, error) { return fn(s) }
	}
	return attempt(ctx, c, componentStore, c.mode.RealStore(), real, func() (T, error) {
		return fn(c.b.backends.SimulatedStore)
	})
}

// attempt runs real when useReal is set. A backend failure, or a missing
// real backend, falls back to simulated once. Simulated failures surface as
// domain.ErrCoreUnavailable.
func attempt[T any](ctx context.Context, c *call, component string, useReal bool, real, simulated func() (T, error)) (T, error) {
	var zero T

	if useReal {
		cause := domain.ErrBackendNotConfigured
		if real != nil {
			v, err := real()
			if err == nil {
				return v, nil
			}
			if final(ctx, err) {
				return zero, err
			}
			cause = err
		}
		c.fallback(component, cause)
	}

	v, err := simulated()
	if err != nil {
		if final(ctx, err) {
			return zero, err
		}
		return zero, fmt.Errorf("%s: %w: %w", c.op, domain.ErrCoreUnavailable, err)
	}
	return v, nil
}

// final reports errors that are returned as-is: invalid input, missing
// records and cancellation by the caller.
func final(ctx context.Context, err error) bool {
	return domain.IsValidation(err) || errors.Is(err, domain.ErrNotFound) || ctx.Err() != nil
}

// nopMetrics discards observations.
type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, domain.Mode, bool, bool, time.Duration) {}

func (nopMetrics) ObserveFallback(string, string) {}
