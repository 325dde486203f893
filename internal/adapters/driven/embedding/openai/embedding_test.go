package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type capturedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newServer(t *testing.T, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
		case "/v1/embeddings":
			var req capturedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if captured != nil {
				*captured = append(*captured, req)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"model":  req.Model,
				"data": []map[string]any{{
					"object":    "embedding",
					"index":     0,
					"embedding": []float32{0.1, 0.2, float32(len(req.Input[0]))},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBackendNotConfigured))
}

func TestNew_Dimensions(t *testing.T) {
	p, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.ModelName())
	assert.Equal(t, 1536, p.Dimensions())

	p, err = New(Config{APIKey: "sk-test", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, p.Dimensions())

	p, err = New(Config{APIKey: "sk-test", Dimensions: 768})
	require.NoError(t, err)
	assert.Equal(t, 768, p.Dimensions())
	assert.True(t, p.reduced)

	p, err = New(Config{APIKey: "sk-test", Model: "text-embedding-ada-002", Dimensions: 1536})
	require.NoError(t, err)
	assert.False(t, p.reduced)
}

func TestEmbedDocumentAndQuery(t *testing.T) {
	var captured []capturedRequest
	srv := newServer(t, &captured)
	defer srv.Close()

	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Dimensions: 768})
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := p.EmbedDocument(ctx, "body", "Title")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, doc.Values[:2])

	_, err = p.EmbedQuery(ctx, "question")
	require.NoError(t, err)

	require.Len(t, captured, 2)
	assert.Equal(t, []string{"Title: Title\n\nContent: body"}, captured[0].Input)
	assert.Equal(t, []string{"question"}, captured[1].Input)
	assert.Equal(t, DefaultModel, captured[1].Model)
	assert.Equal(t, 768, captured[1].Dimensions)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := p.EmbedBatch(context.Background(), []string{"a", "bbbb", "cc"}, domain.TaskQuery, "")
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, float32(1), out[0].Values[2])
	assert.Equal(t, float32(4), out[1].Values[2])
	assert.Equal(t, float32(2), out[2].Values[2])
}

func TestEmbed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = p.EmbedQuery(context.Background(), "question")
	require.Error(t, err)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "embed query", pe.Op)
	assert.Contains(t, err.Error(), "invalid api key")

	assert.Error(t, p.Ping(context.Background()))
}

func TestEmbed_EmptyText(t *testing.T) {
	p, err := New(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	_, err = p.EmbedQuery(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrEmptyText))
}

func TestPing(t *testing.T) {
	srv := newServer(t, nil)
	defer srv.Close()

	p, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	assert.NoError(t, p.Ping(context.Background()))
}
