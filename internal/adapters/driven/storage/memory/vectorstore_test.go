package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestVectorStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.VectorStore {
		return NewVectorStore()
	})
}

func TestVectorStore_Name(t *testing.T) {
	s := NewVectorStore()
	assert.Equal(t, "memory", s.Name())
	assert.NoError(t, s.Close())
}

func TestVectorStore_EqualSimilarityKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	for _, doc := range []string{"c", "a", "b"} {
		require.NoError(t, s.StoreChunk(ctx, storetest.NewChunk(doc, 0, domain.LanguageEnglish, ""), storetest.NewEmbedding(1, 1)))
	}

	results, err := s.SearchSimilar(ctx, []float32{1, 1}, domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "c", results[0].Record.Chunk.DocumentID)
	assert.Equal(t, "a", results[1].Record.Chunk.DocumentID)
	assert.Equal(t, "b", results[2].Record.Chunk.DocumentID)
}

func TestVectorStore_CopiesInput(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()
	chunk := storetest.NewChunk("doc", 0, domain.LanguageEnglish, "")
	values := []float32{1, 0}
	require.NoError(t, s.StoreChunk(ctx, chunk, domain.Embedding{Values: values}))

	values[0] = 42
	chunk.Tags[0] = "mutated"

	rec, err := s.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, float32(1), rec.Embedding.Values[0])
	assert.Equal(t, "t1", rec.Chunk.Tags[0])
}

func TestVectorStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewVectorStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = s.StoreChunk(ctx, storetest.NewChunk("doc", i, domain.LanguageEnglish, ""), storetest.NewEmbedding(1, float32(i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.SearchSimilar(ctx, []float32{1, 0}, domain.SearchOptions{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
}
