package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "data", "vectors.db"))
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.VectorStore {
		return setupTestStore(t)
	})
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_CreatesDirectoryAndSchema(t *testing.T) {
	store := setupTestStore(t)
	assert.Equal(t, "sqlite", store.Name())
	assert.FileExists(t, store.Path())

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	var count int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'vector_records'").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	chunk := storetest.NewChunk("doc-1", 0, domain.LanguageFrench, "user")
	require.NoError(t, store.StoreChunk(ctx, chunk, storetest.NewEmbedding(0.1, 0.2, 0.3)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	rec, err := reopened.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, rec.Chunk.Content)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, rec.Embedding.Values)

	var applied int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestStore_TruncatedFlagRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	chunk := storetest.NewChunk("doc-1", 0, domain.LanguageEnglish, "")
	emb := storetest.NewEmbedding(1, 0)
	emb.Truncated = true
	require.NoError(t, store.StoreChunk(ctx, chunk, emb))

	rec, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.True(t, rec.Embedding.Truncated)
}

func TestStore_NilTags(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	chunk := storetest.NewChunk("doc-1", 0, domain.LanguageEnglish, "")
	chunk.Tags = nil
	require.NoError(t, store.StoreChunk(ctx, chunk, storetest.NewEmbedding(1, 0)))

	rec, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Empty(t, rec.Chunk.Tags)
}

// ==================== Transaction Failure Tests ====================

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStoreFromDB(db), mock
}

func TestStoreBatch_ExecFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO vector_records")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	chunks := []domain.Chunk{
		storetest.NewChunk("doc-1", 0, domain.LanguageEnglish, ""),
		storetest.NewChunk("doc-1", 1, domain.LanguageEnglish, ""),
	}
	err := store.StoreBatch(context.Background(), chunks,
		[]domain.Embedding{storetest.NewEmbedding(1, 0), storetest.NewEmbedding(0, 1)})
	require.Error(t, err)

	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "store batch", se.Op)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.False(t, domain.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatch_CommitFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO vector_records").ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err := store.StoreChunk(context.Background(),
		storetest.NewChunk("doc-1", 0, domain.LanguageEnglish, ""), storetest.NewEmbedding(1, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatch_BeginFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	err := store.StoreChunk(context.Background(),
		storetest.NewChunk("doc-1", 0, domain.LanguageEnglish, ""), storetest.NewEmbedding(1, 0))
	require.Error(t, err)
	assert.True(t, domain.IsBackend(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceDocument_InsertFailureRollsBackDelete(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM vector_records WHERE document_id").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectPrepare("INSERT INTO vector_records").ExpectExec().WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := store.ReplaceDocument(context.Background(), "doc-1",
		[]domain.Chunk{storetest.NewChunk("doc-1", 0, domain.LanguageEnglish, "")},
		[]domain.Embedding{storetest.NewEmbedding(1, 0)})
	require.Error(t, err)

	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "replace document", se.Op)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatch_EmptyIsNoop(t *testing.T) {
	store, mock := newMockStore(t)
	require.NoError(t, store.StoreBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchSimilar_QueryFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT (.+) FROM vector_records WHERE user_id = \\? AND document_id IN \\(\\?, \\?\\)").
		WithArgs("alice", "doc-1", "doc-2").
		WillReturnError(errors.New("no such table"))

	_, err := store.SearchSimilar(context.Background(), []float32{1, 0}, domain.SearchOptions{
		UserID:      "alice",
		DocumentIDs: []string{"doc-1", "doc-2"},
	})
	require.Error(t, err)
	var se *domain.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "search", se.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==================== Helper Function Tests ====================

func TestFloat32Conversion(t *testing.T) {
	tests := []struct {
		name   string
		floats []float32
	}{
		{"simple", []float32{1.0, 2.0, 3.0}},
		{"negative", []float32{-1.5, 0, 1.5}},
		{"single", []float32{0.123}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.floats, bytesToFloat32Slice(float32SliceToBytes(tt.floats)))
		})
	}

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
