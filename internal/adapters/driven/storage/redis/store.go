// Package redis provides a driven.VectorStore backed by Redis.
//
// Each chunk is a hash at <prefix>:chunk:<id> holding its metadata and its
// embedding as a JSON number array. A sorted set <prefix>:chunks orders every
// chunk by first insertion and a set <prefix>:doc:<id> indexes each document.
// Batch writes and document replacement run in one MULTI/EXEC transaction.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const storeName = "redis"

// Default configuration values.
const (
	DefaultAddr   = "localhost:6379"
	DefaultPrefix = domain.DefaultRedisPrefix
)

// Hash field names.
const (
	fieldID              = "id"
	fieldDocumentID      = "document_id"
	fieldDocumentTitle   = "document_title"
	fieldContent         = "content"
	fieldChunkIndex      = "chunk_index"
	fieldStartPosition   = "start_position"
	fieldEndPosition     = "end_position"
	fieldTokenCount      = "token_count"
	fieldWordCount       = "word_count"
	fieldLanguage        = "language"
	fieldUserID          = "user_id"
	fieldTags            = "tags"
	fieldEmbedding       = "embedding"
	fieldEmbeddingTokens = "embedding_tokens"
	fieldTruncated       = "truncated"
	fieldCreatedAt       = "created_at"
	fieldUpdatedAt       = "updated_at"
)

// Config holds Redis connection settings.
type Config struct {
	// Addr is the Redis host:port (default: localhost:6379).
	Addr string

	// Password is the AUTH password.
	Password string

	// DB is the logical database number.
	DB int

	// Prefix namespaces every key (default: rag).
	Prefix string
}

// Store is a Redis-backed vector store.
type Store struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// New connects a store using cfg. The connection is not verified; call Ping.
func New(cfg Config) *Store {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewFromClient(client, cfg.Prefix)
}

// NewFromClient wraps an existing client.
func NewFromClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

func (s *Store) chunkKey(id string) string { return s.prefix + ":chunk:" + id }

func (s *Store) docKey(id string) string { return s.prefix + ":doc:" + id }

func (s *Store) orderKey() string { return s.prefix + ":chunks" }

// StoreChunk stores or replaces one record.
func (s *Store) StoreChunk(ctx context.Context, chunk domain.Chunk, embedding domain.Embedding) error {
	return s.StoreBatch(ctx, []domain.Chunk{chunk}, []domain.Embedding{embedding})
}

// StoreBatch stores chunks[i] with embeddings[i] in one MULTI/EXEC.
func (s *Store) StoreBatch(ctx context.Context, chunks []domain.Chunk, embeddings []domain.Embedding) error {
	if err := checkArity(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	write, err := s.prepareWrite(ctx, chunks, embeddings)
	if err != nil {
		return s.fail("store batch", err)
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		write(pipe)
		return nil
	}); err != nil {
		return s.fail("store batch", fmt.Errorf("executing transaction: %w", err))
	}
	return nil
}

// ReplaceDocument removes the document's stale chunks and writes the new
// ones in one MULTI/EXEC.
func (s *Store) ReplaceDocument(
	ctx context.Context, documentID string, chunks []domain.Chunk, embeddings []domain.Embedding,
) error {
	if err := checkArity(chunks, embeddings); err != nil {
		return err
	}

	existing, err := s.client.SMembers(ctx, s.docKey(documentID)).Result()
	if err != nil {
		return s.fail("replace document", err)
	}
	write, err := s.prepareWrite(ctx, chunks, embeddings)
	if err != nil {
		return s.fail("replace document", err)
	}

	kept := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		kept[chunk.ID] = true
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range existing {
			if !kept[id] {
				pipe.Del(ctx, s.chunkKey(id))
				pipe.ZRem(ctx, s.orderKey(), id)
			}
		}
		pipe.Del(ctx, s.docKey(documentID))
		write(pipe)
		return nil
	}); err != nil {
		return s.fail("replace document", fmt.Errorf("executing transaction: %w", err))
	}
	return nil
}

func checkArity(chunks []domain.Chunk, embeddings []domain.Embedding) error {
	if len(chunks) != len(embeddings) {
		return domain.NewValidationError("embeddings",
			fmt.Errorf("%w: %d chunks, %d embeddings", domain.ErrArityMismatch, len(chunks), len(embeddings)))
	}
	return nil
}

// prepareWrite encodes the records and returns the commands that store them.
func (s *Store) prepareWrite(
	ctx context.Context, chunks []domain.Chunk, embeddings []domain.Embedding,
) (func(goredis.Pipeliner), error) {
	if len(chunks) == 0 {
		return func(goredis.Pipeliner) {}, nil
	}

	previous, err := s.previousDocuments(ctx, chunks)
	if err != nil {
		return nil, err
	}

	now := s.now()
	values := make([]map[string]any, len(chunks))
	for i := range chunks {
		if values[i], err = encodeRecord(chunks[i], embeddings[i], now); err != nil {
			return nil, err
		}
	}

	// ZADD NX keeps the first-insertion score when a chunk is replaced.
	base := float64(now.UnixMilli()) * 1000
	return func(pipe goredis.Pipeliner) {
		for i, chunk := range chunks {
			if old := previous[i]; old != "" && old != chunk.DocumentID {
				pipe.SRem(ctx, s.docKey(old), chunk.ID)
			}
			pipe.Del(ctx, s.chunkKey(chunk.ID))
			pipe.HSet(ctx, s.chunkKey(chunk.ID), values[i])
			pipe.SAdd(ctx, s.docKey(chunk.DocumentID), chunk.ID)
			pipe.ZAddNX(ctx, s.orderKey(), goredis.Z{Score: base + float64(i), Member: chunk.ID})
		}
	}, nil
}

// previousDocuments returns the stored document ID of each chunk, or "".
func (s *Store) previousDocuments(ctx context.Context, chunks []domain.Chunk) ([]string, error) {
	cmds := make([]*goredis.StringCmd, len(chunks))
	_, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, chunk := range chunks {
			cmds[i] = pipe.HGet(ctx, s.chunkKey(chunk.ID), fieldDocumentID)
		}
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("reading existing chunks: %w", err)
	}

	out := make([]string, len(chunks))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

// SearchSimilar loads every record in insertion order and ranks the matches.
func (s *Store) SearchSimilar(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return nil, s.fail("search", err)
	}

	results, err := domain.RankRecords(query, records, opts)
	if err != nil {
		return nil, s.fail("search", err)
	}
	return results, nil
}

// GetChunk retrieves one record by chunk ID.
func (s *Store) GetChunk(ctx context.Context, chunkID string) (*domain.VectorRecord, error) {
	values, err := s.client.HGetAll(ctx, s.chunkKey(chunkID)).Result()
	if err != nil {
		return nil, s.fail("get chunk", err)
	}
	if len(values) == 0 {
		return nil, domain.ErrNotFound
	}

	rec, err := decodeRecord(values)
	if err != nil {
		return nil, s.fail("get chunk", err)
	}
	return rec, nil
}

// GetDocumentChunks returns a document's records ordered by chunk index.
func (s *Store) GetDocumentChunks(ctx context.Context, documentID string) ([]domain.VectorRecord, error) {
	ids, err := s.client.SMembers(ctx, s.docKey(documentID)).Result()
	if err != nil {
		return nil, s.fail("get document chunks", err)
	}

	records, err := s.load(ctx, ids)
	if err != nil {
		return nil, s.fail("get document chunks", err)
	}
	slices.SortFunc(records, func(a, b domain.VectorRecord) int {
		if a.Chunk.ChunkIndex != b.Chunk.ChunkIndex {
			return a.Chunk.ChunkIndex - b.Chunk.ChunkIndex
		}
		if a.Chunk.ID < b.Chunk.ID {
			return -1
		}
		if a.Chunk.ID > b.Chunk.ID {
			return 1
		}
		return 0
	})
	return records, nil
}

// DeleteDocument removes every record of a document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	ids, err := s.client.SMembers(ctx, s.docKey(documentID)).Result()
	if err != nil {
		return s.fail("delete document", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, s.chunkKey(id))
			pipe.ZRem(ctx, s.orderKey(), id)
		}
		pipe.Del(ctx, s.docKey(documentID))
		return nil
	})
	if err != nil {
		return s.fail("delete document", fmt.Errorf("executing transaction: %w", err))
	}
	return nil
}

// DeleteChunk removes one record.
func (s *Store) DeleteChunk(ctx context.Context, chunkID string) error {
	documentID, err := s.client.HGet(ctx, s.chunkKey(chunkID), fieldDocumentID).Result()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	if err != nil {
		return s.fail("delete chunk", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.chunkKey(chunkID))
		pipe.ZRem(ctx, s.orderKey(), chunkID)
		pipe.SRem(ctx, s.docKey(documentID), chunkID)
		return nil
	})
	if err != nil {
		return s.fail("delete chunk", fmt.Errorf("executing transaction: %w", err))
	}
	return nil
}

// IndexStats summarises every stored record.
func (s *Store) IndexStats(ctx context.Context) (domain.IndexStats, error) {
	records, err := s.allRecords(ctx)
	if err != nil {
		return domain.IndexStats{}, s.fail("index stats", err)
	}
	return domain.ComputeIndexStats(records, s.now()), nil
}

// Name returns the backend name.
func (s *Store) Name() string {
	return storeName
}

// Ping validates the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) allRecords(ctx context.Context) ([]domain.VectorRecord, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	return s.load(ctx, ids)
}

// load fetches the hashes for ids in one pipeline, skipping vanished keys.
func (s *Store) load(ctx context.Context, ids []string) ([]domain.VectorRecord, error) {
	records := make([]domain.VectorRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	if _, err := s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.chunkKey(id))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	for _, cmd := range cmds {
		values := cmd.Val()
		if len(values) == 0 {
			continue
		}
		rec, err := decodeRecord(values)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (s *Store) fail(op string, err error) error {
	return &domain.StoreError{Store: storeName, Op: op, Err: err}
}

// encodeRecord flattens a record into hash fields.
func encodeRecord(chunk domain.Chunk, emb domain.Embedding, updatedAt time.Time) (map[string]any, error) {
	tags := chunk.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshalling tags: %w", err)
	}

	values := emb.Values
	if values == nil {
		values = []float32{}
	}
	embeddingJSON, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshalling embedding: %w", err)
	}

	return map[string]any{
		fieldID:              chunk.ID,
		fieldDocumentID:      chunk.DocumentID,
		fieldDocumentTitle:   chunk.DocumentTitle,
		fieldContent:         chunk.Content,
		fieldChunkIndex:      chunk.ChunkIndex,
		fieldStartPosition:   chunk.StartPosition,
		fieldEndPosition:     chunk.EndPosition,
		fieldTokenCount:      chunk.TokenCount,
		fieldWordCount:       chunk.WordCount,
		fieldLanguage:        string(chunk.Language),
		fieldUserID:          chunk.UserID,
		fieldTags:            string(tagsJSON),
		fieldEmbedding:       string(embeddingJSON),
		fieldEmbeddingTokens: emb.TokenCount,
		fieldTruncated:       strconv.FormatBool(emb.Truncated),
		fieldCreatedAt:       chunk.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUpdatedAt:       updatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// decodeRecord rebuilds a record from hash fields.
func decodeRecord(values map[string]string) (*domain.VectorRecord, error) {
	var rec domain.VectorRecord
	c := &rec.Chunk
	c.ID = values[fieldID]
	c.DocumentID = values[fieldDocumentID]
	c.DocumentTitle = values[fieldDocumentTitle]
	c.Content = values[fieldContent]
	c.Language = domain.Language(values[fieldLanguage])
	c.UserID = values[fieldUserID]

	ints := []struct {
		field string
		dst   *int
	}{
		{fieldChunkIndex, &c.ChunkIndex},
		{fieldStartPosition, &c.StartPosition},
		{fieldEndPosition, &c.EndPosition},
		{fieldTokenCount, &c.TokenCount},
		{fieldWordCount, &c.WordCount},
		{fieldEmbeddingTokens, &rec.Embedding.TokenCount},
	}
	for _, f := range ints {
		raw, ok := values[f.field]
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of chunk %s: %w", f.field, c.ID, err)
		}
		*f.dst = n
	}

	if raw := values[fieldTruncated]; raw != "" {
		truncated, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s of chunk %s: %w", fieldTruncated, c.ID, err)
		}
		rec.Embedding.Truncated = truncated
	}

	if raw := values[fieldTags]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags of chunk %s: %w", c.ID, err)
		}
	}
	if raw := values[fieldEmbedding]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Embedding.Values); err != nil {
			return nil, fmt.Errorf("unmarshaling embedding of chunk %s: %w", c.ID, err)
		}
	}

	var err error
	if c.CreatedAt, err = parseTime(values[fieldCreatedAt]); err != nil {
		return nil, fmt.Errorf("parsing %s of chunk %s: %w", fieldCreatedAt, c.ID, err)
	}
	if rec.UpdatedAt, err = parseTime(values[fieldUpdatedAt]); err != nil {
		return nil, fmt.Errorf("parsing %s of chunk %s: %w", fieldUpdatedAt, c.ID, err)
	}

	return &rec, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
