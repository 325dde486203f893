package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/plain")
	assert.Contains(t, n.SupportedMIMETypes(), "application/json")
	assert.Equal(t, 5, n.Priority())
}

func TestNormalise(t *testing.T) {
	n := New()

	res, err := n.Normalise(context.Background(), &domain.RawDocument{
		FileName: "/tmp/release_notes.txt",
		Content:  []byte("Line one.\n\nLine two."),
	})
	require.NoError(t, err)
	assert.Equal(t, "release notes", res.Title)
	assert.Equal(t, "Line one.\n\nLine two.", res.Text)
}

func TestNormalise_InvalidUTF8(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "bad.txt",
		Content:  []byte{'o', 'k', 0xff, '!'},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok�!", res.Text)
}

func TestNormalise_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
