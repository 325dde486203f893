package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const storeName = "sqlite"

// recordColumns is the column list shared by every record query.
const recordColumns = `id, document_id, document_title, content, chunk_index, start_position,
	end_position, token_count, word_count, language, user_id, tags, embedding,
	embedding_tokens, truncated, created_at, updated_at`

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// DefaultPath returns ~/.sercha-rag/data/vectors.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-rag", "data", "vectors.db"), nil
}

// NewStore opens (creating if needed) the database at path and applies migrations.
// If path is empty, DefaultPath is used.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := NewStoreFromDB(db)
	s.path = path

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewStoreFromDB wraps an already migrated database handle.
func NewStoreFromDB(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Name returns the backend name.
func (s *Store) Name() string {
	return storeName
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping validates the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs all pending migrations, recording each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vector_records.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// StoreChunk stores or replaces one record.
func (s *Store) StoreChunk(ctx context.Context, chunk domain.Chunk, embedding domain.Embedding) error {
	return s.StoreBatch(ctx, []domain.Chunk{chunk}, []domain.Embedding{embedding})
}

// StoreBatch stores chunks[i] with embeddings[i] in one transaction.
func (s *Store) StoreBatch(ctx context.Context, chunks []domain.Chunk, embeddings []domain.Embedding) error {
	if err := checkArity(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("store batch", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.upsert(ctx, tx, chunks, embeddings); err != nil {
		return s.fail("store batch", err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("store batch", fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// ReplaceDocument deletes a document's records and stores the new ones in
// one transaction.
func (s *Store) ReplaceDocument(
	ctx context.Context, documentID string, chunks []domain.Chunk, embeddings []domain.Embedding,
) error {
	if err := checkArity(chunks, embeddings); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("replace document", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM vector_records WHERE document_id = ?", documentID); err != nil {
		return s.fail("replace document", fmt.Errorf("deleting document: %w", err))
	}
	if len(chunks) > 0 {
		if err := s.upsert(ctx, tx, chunks, embeddings); err != nil {
			return s.fail("replace document", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail("replace document", fmt.Errorf("committing transaction: %w", err))
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

// upsert writes every record inside tx.
func (s *Store) upsert(ctx context.Context, tx *sql.Tx, chunks []domain.Chunk, embeddings []domain.Embedding) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_records (`+recordColumns+`, dimensions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			document_title = excluded.document_title,
			content = excluded.content,
			chunk_index = excluded.chunk_index,
			start_position = excluded.start_position,
			end_position = excluded.end_position,
			token_count = excluded.token_count,
			word_count = excluded.word_count,
			language = excluded.language,
			user_id = excluded.user_id,
			tags = excluded.tags,
			embedding = excluded.embedding,
			embedding_tokens = excluded.embedding_tokens,
			truncated = excluded.truncated,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			dimensions = excluded.dimensions
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	updatedAt := s.now().UnixNano()
	for i, chunk := range chunks {
		tags := chunk.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("marshalling tags: %w", err)
		}

		emb := embeddings[i]
		if _, err := stmt.ExecContext(ctx,
			chunk.ID, chunk.DocumentID, chunk.DocumentTitle, chunk.Content, chunk.ChunkIndex,
			chunk.StartPosition, chunk.EndPosition, chunk.TokenCount, chunk.WordCount,
			string(chunk.Language), chunk.UserID, string(tagsJSON), float32SliceToBytes(emb.Values),
			emb.TokenCount, emb.Truncated, chunk.CreatedAt.UnixNano(), updatedAt, len(emb.Values),
		); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

// SearchSimilar loads the filtered records and ranks them by cosine similarity.
func (s *Store) SearchSimilar(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	var where []string
	var args []any
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.Language != "" {
		where = append(where, "language = ?")
		args = append(args, string(opts.Language))
	}
	if len(opts.DocumentIDs) > 0 {
		where = append(where, "document_id IN (?"+strings.Repeat(", ?", len(opts.DocumentIDs)-1)+")")
		for _, id := range opts.DocumentIDs {
			args = append(args, id)
		}
	}

	q := "SELECT " + recordColumns + " FROM vector_records"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rowid"

	records, err := s.queryRecords(ctx, q, args...)
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
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM vector_records WHERE id = ?", chunkID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, s.fail("get chunk", err)
	}
	return rec, nil
}

// GetDocumentChunks returns a document's records ordered by chunk index.
func (s *Store) GetDocumentChunks(ctx context.Context, documentID string) ([]domain.VectorRecord, error) {
	records, err := s.queryRecords(ctx,
		"SELECT "+recordColumns+" FROM vector_records WHERE document_id = ? ORDER BY chunk_index, rowid",
		documentID)
	if err != nil {
		return nil, s.fail("get document chunks", err)
	}
	return records, nil
}

// DeleteDocument removes every record of a document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vector_records WHERE document_id = ?", documentID); err != nil {
		return s.fail("delete document", fmt.Errorf("deleting document: %w", err))
	}
	return nil
}

// DeleteChunk removes one record.
func (s *Store) DeleteChunk(ctx context.Context, chunkID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vector_records WHERE id = ?", chunkID); err != nil {
		return s.fail("delete chunk", fmt.Errorf("deleting chunk: %w", err))
	}
	return nil
}

// IndexStats aggregates the table in SQL.
func (s *Store) IndexStats(ctx context.Context) (domain.IndexStats, error) {
	var (
		docs, chunks   int
		avgDims        sql.NullFloat64
		oldest, newest sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT document_id), COUNT(*), ROUND(AVG(dimensions)),
			MIN(created_at), MAX(created_at)
		FROM vector_records
	`)
	if err := row.Scan(&docs, &chunks, &avgDims, &oldest, &newest); err != nil {
		return domain.IndexStats{}, s.fail("index stats", fmt.Errorf("scanning stats: %w", err))
	}
	if chunks == 0 {
		return domain.ComputeIndexStats(nil, s.now()), nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT language FROM vector_records WHERE language != '' ORDER BY language")
	if err != nil {
		return domain.IndexStats{}, s.fail("index stats", fmt.Errorf("querying languages: %w", err))
	}
	defer rows.Close()

	languages := make([]domain.Language, 0, 2)
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return domain.IndexStats{}, s.fail("index stats", fmt.Errorf("scanning language: %w", err))
		}
		languages = append(languages, domain.Language(lang))
	}
	if err := rows.Err(); err != nil {
		return domain.IndexStats{}, s.fail("index stats", fmt.Errorf("iterating languages: %w", err))
	}

	return domain.IndexStats{
		TotalDocuments:            docs,
		TotalChunks:               chunks,
		AverageEmbeddingDimension: int(avgDims.Float64),
		Languages:                 languages,
		OldestRecord:              fromUnixNano(oldest.Int64),
		NewestRecord:              fromUnixNano(newest.Int64),
	}, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]domain.VectorRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.VectorRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func (s *Store) fail(op string, err error) error {
	return &domain.StoreError{Store: storeName, Op: op, Err: err}
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans one record. sql.ErrNoRows is returned unwrapped.
func scanRecord(row scanner) (*domain.VectorRecord, error) {
	var (
		rec                  domain.VectorRecord
		language, tagsJSON   string
		embeddingBlob        []byte
		createdAt, updatedAt int64
	)

	c := &rec.Chunk
	if err := row.Scan(&c.ID, &c.DocumentID, &c.DocumentTitle, &c.Content, &c.ChunkIndex,
		&c.StartPosition, &c.EndPosition, &c.TokenCount, &c.WordCount, &language, &c.UserID,
		&tagsJSON, &embeddingBlob, &rec.Embedding.TokenCount, &rec.Embedding.Truncated,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}

	c.Language = domain.Language(language)
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &c.Tags); err != nil {
			return nil, fmt.Errorf("unmarshaling tags: %w", err)
		}
	}
	c.CreatedAt = fromUnixNano(createdAt)
	rec.Embedding.Values = bytesToFloat32Slice(embeddingBlob)
	rec.UpdatedAt = fromUnixNano(updatedAt)

	return &rec, nil
}

func fromUnixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
