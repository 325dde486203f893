package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

type stubNormaliser struct {
	name     string
	types    []string
	priority int
}

func (s *stubNormaliser) SupportedMIMETypes() []string { return s.types }
func (s *stubNormaliser) Priority() int { return s.priority }

func (s *stubNormaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	return &driven.NormaliseResult{Title: s.name, Text: string(raw.Content)}, nil
}

func TestRegistry_PriorityOrder(t *testing.T) {
	low := &stubNormaliser{name: "low", types: []string{"text/plain"}, priority: 5}
	high := &stubNormaliser{name: "high", types: []string{"text/plain", "text/markdown"}, priority: 50}
	r := NewRegistry(low, high)

	n, err := r.Get("text/plain")
	require.NoError(t, err)
	assert.Same(t, high, n)

	n, err = r.Get("TEXT/PLAIN; charset=utf-8")
	require.NoError(t, err)
	assert.Same(t, high, n)

	assert.Equal(t, []string{"text/markdown", "text/plain"}, r.SupportedMIMETypes())
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("application/zip")
	require.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "application/zip")
}

func TestRegistry_Normalise(t *testing.T) {
	r := NewRegistry(&stubNormaliser{name: "md", types: []string{"text/markdown"}, priority: 50})

	t.Run("detects type from file name", func(t *testing.T) {
		raw := &domain.RawDocument{FileName: "notes.md", Content: []byte("hello")}
		res, err := r.Normalise(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, "md", res.Title)
		assert.Equal(t, "hello", res.Text)
		assert.Equal(t, "text/markdown", raw.MIMEType)
	})

	t.Run("explicit type wins", func(t *testing.T) {
		raw := &domain.RawDocument{FileName: "notes.md", MIMEType: "application/pdf"}
		_, err := r.Normalise(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := r.Normalise(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		fileName string
		expected string
	}{
		{"README.md", "text/markdown"},
		{"notes.TXT", "text/plain"},
		{"page.htm", "text/html"},
		{"paper.pdf", "application/pdf"},
		{"blob", "application/octet-stream"},
		{"archive.unknownext", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectMIMEType(tt.fileName))
		})
	}
}

func TestBaseType(t *testing.T) {
	assert.Equal(t, "text/html", BaseType("text/html; charset=UTF-8"))
	assert.Equal(t, "text/plain", BaseType(" Text/Plain "))
	assert.Equal(t, "not a type;;", BaseType("not a type;;"))
}

func TestTitleFromFileName(t *testing.T) {
	assert.Equal(t, "quarterly report 2024", TitleFromFileName("/docs/quarterly_report-2024.pdf"))
	assert.Equal(t, "notes", TitleFromFileName("notes"))
	assert.Equal(t, "", TitleFromFileName(""))
}
