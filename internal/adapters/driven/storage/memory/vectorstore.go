package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Records are kept in insertion order so equal similarities rank stably.
// Contents are lost when the process exits.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]domain.VectorRecord
	order   []string
	now     func() time.Time
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]domain.VectorRecord),
		now:     time.Now,
	}
}

// StoreChunk stores or replaces a chunk record.
func (s *VectorStore) StoreChunk(_ context.Context, chunk domain.Chunk, embedding domain.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(chunk, embedding)
	return nil
}

// StoreBatch stores chunks[i] with embeddings[i].
func (s *VectorStore) StoreBatch(_ context.Context, chunks []domain.Chunk, embeddings []domain.Embedding) error {
	if len(chunks) != len(embeddings) {
		return domain.NewValidationError("embeddings",
			fmt.Errorf("%w: %d chunks, %d embeddings", domain.ErrArityMismatch, len(chunks), len(embeddings)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		s.put(chunks[i], embeddings[i])
	}
	return nil
}

// ReplaceDocument swaps a document's records under one write lock.
func (s *VectorStore) ReplaceDocument(
	_ context.Context, documentID string, chunks []domain.Chunk, embeddings []domain.Embedding,
) error {
	if len(chunks) != len(embeddings) {
		return domain.NewValidationError("embeddings",
			fmt.Errorf("%w: %d chunks, %d embeddings", domain.ErrArityMismatch, len(chunks), len(embeddings)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeDocument(documentID)
	for i := range chunks {
		s.put(chunks[i], embeddings[i])
	}
	return nil
}

// put must be called with the write lock held.
func (s *VectorStore) put(chunk domain.Chunk, embedding domain.Embedding) {
	if _, exists := s.records[chunk.ID]; !exists {
		s.order = append(s.order, chunk.ID)
	}
	embedding.Values = slices.Clone(embedding.Values)
	chunk.Tags = slices.Clone(chunk.Tags)
	s.records[chunk.ID] = domain.VectorRecord{
		Chunk:     chunk,
		Embedding: embedding,
		UpdatedAt: s.now(),
	}
}

// SearchSimilar ranks all stored records against query.
func (s *VectorStore) SearchSimilar(_ context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	results, err := domain.RankRecords(query, s.snapshot(), opts)
	if err != nil {
		return nil, &domain.StoreError{Store: s.Name(), Op: "search", Err: err}
	}
	return results, nil
}

// GetChunk retrieves one record by chunk ID.
func (s *VectorStore) GetChunk(_ context.Context, chunkID string) (*domain.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[chunkID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// GetDocumentChunks returns a document's records ordered by chunk index.
func (s *VectorStore) GetDocumentChunks(_ context.Context, documentID string) ([]domain.VectorRecord, error) {
	result := make([]domain.VectorRecord, 0)
	for _, rec := range s.snapshot() {
		if rec.Chunk.DocumentID == documentID {
			result = append(result, rec)
		}
	}
	slices.SortStableFunc(result, func(a, b domain.VectorRecord) int {
		return a.Chunk.ChunkIndex - b.Chunk.ChunkIndex
	})
	return result, nil
}

// DeleteDocument removes every record of a document.
func (s *VectorStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeDocument(documentID)
	return nil
}

// removeDocument must be called with the write lock held.
func (s *VectorStore) removeDocument(documentID string) {
	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		if s.records[id].Chunk.DocumentID != documentID {
			return false
		}
		delete(s.records, id)
		return true
	})
}

// DeleteChunk removes one record.
func (s *VectorStore) DeleteChunk(_ context.Context, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[chunkID]; !ok {
		return nil
	}
	delete(s.records, chunkID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == chunkID })
	return nil
}

// IndexStats summarises the stored records.
func (s *VectorStore) IndexStats(_ context.Context) (domain.IndexStats, error) {
	return domain.ComputeIndexStats(s.snapshot(), s.now()), nil
}

// Name returns the backend name.
func (s *VectorStore) Name() string {
	return "memory"
}

// Ping always succeeds.
func (s *VectorStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// snapshot copies the records in insertion order.
func (s *VectorStore) snapshot() []domain.VectorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VectorRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}
