package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// buildPDF writes a single-page PDF with one line of Helvetica text and
// an optional information dictionary title.
func buildPDF(title, text string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		fmt.Sprintf("<< /Title (%s) >>", title),
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 6 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestSupportedMIMETypes(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"application/pdf"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "report.pdf",
		MIMEType: "application/pdf",
		Content:  buildPDF("Annual Report", "Paris is the capital of France."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Annual Report", res.Title)
	assert.Contains(t, res.Text, "Paris is the capital of France.")
}

func TestNormalise_TitleFallback(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "field_notes.pdf",
		Content:  buildPDF("", "Some text."),
	})
	require.NoError(t, err)
	assert.Equal(t, "field notes", res.Title)
}

func TestNormalise_NoTextLayer(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "scan.pdf",
		Content:  buildPDF("Scan", ""),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyText)
}

func TestNormalise_InvalidContent(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		FileName: "broken.pdf",
		Content:  []byte("definitely not a pdf"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open pdf")
}

func TestNormalise_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Normalise(ctx, &domain.RawDocument{Content: buildPDF("", "text")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalise_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
