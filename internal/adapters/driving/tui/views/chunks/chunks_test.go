package chunks

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/tuitest"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// load selects documentID and feeds the loaded chunks back into the view.
func load(t *testing.T, v *View, documentID string) messages.ChunksLoaded {
	t.Helper()
	cmd := v.SetDocument(documentID, "Cities")
	require.NotNil(t, cmd)
	assert.True(t, v.Loading())

	msg, ok := cmd().(messages.ChunksLoaded)
	require.True(t, ok)
	v.Update(msg)
	return msg
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.Nil(t, v.Init())
	assert.Empty(t, v.DocumentID())
	assert.False(t, v.Loading())
}

func TestView_LoadChunks(t *testing.T) {
	v := NewView(nil, tuitest.NewRAG())
	v.SetDimensions(100, 30)

	msg := load(t, v, "doc-1")

	assert.Equal(t, "doc-1", msg.DocumentID)
	assert.False(t, v.Loading())
	assert.NoError(t, v.Err())
	require.Len(t, v.Records(), 2)

	out := v.View()
	assert.Contains(t, out, "Cities")
	assert.Contains(t, out, "doc-1 · 2 chunks")
	assert.Contains(t, out, "[0] doc-1_chunk_0")
	assert.Contains(t, out, "4 dims")
	assert.Contains(t, out, "Paris is the capital of France.")
	assert.Contains(t, out, "[1] doc-1_chunk_1")
	assert.NotContains(t, out, "Simulated")
}

func TestView_LoadChunks_Unknown(t *testing.T) {
	v := NewView(nil, tuitest.NewRAG())

	load(t, v, "missing")

	assert.Empty(t, v.Records())
	assert.Contains(t, v.View(), "(No chunks stored)")
}

func TestView_LoadChunks_Fallback(t *testing.T) {
	rag := tuitest.NewRAG()
	rag.Fallback = true
	rag.Warning = "redis: connection refused"
	v := NewView(nil, rag)

	load(t, v, "doc-1")

	assert.Equal(t, "redis: connection refused", v.Warning())
	assert.Contains(t, v.View(), "Simulated: redis: connection refused")
}

func TestView_LoadChunks_Error(t *testing.T) {
	rag := tuitest.NewRAG()
	rag.Err = errors.New("core unavailable")
	v := NewView(nil, rag)

	load(t, v, "doc-1")

	assert.EqualError(t, v.Err(), "core unavailable")
	assert.Contains(t, v.View(), "Error: core unavailable")
}

func TestView_LoadChunks_NoService(t *testing.T) {
	v := NewView(nil, nil)

	load(t, v, "doc-1")

	assert.ErrorIs(t, v.Err(), ErrNoRAGService)
}

func TestView_IgnoresStaleLoad(t *testing.T) {
	v := NewView(nil, tuitest.NewRAG())
	v.SetDocument("doc-2", "")

	v.Update(messages.ChunksLoaded{DocumentID: "doc-1", Records: []domain.VectorRecord{{}}})

	assert.True(t, v.Loading())
	assert.Empty(t, v.Records())
}

func TestView_LoadingView(t *testing.T) {
	v := NewView(nil, tuitest.NewRAG())
	v.SetDocument("doc-1", "")

	out := v.View()

	assert.Contains(t, out, "Loading chunks...")
	assert.Contains(t, out, "doc-1") // Title falls back to the ID
}

func TestView_Scrolling(t *testing.T) {
	rag := tuitest.NewRAG()
	records := make([]domain.VectorRecord, 20)
	for i := range records {
		records[i] = tuitest.Record("long", i, fmt.Sprintf("Chunk number %d.", i))
	}
	rag.DocChunks["long"] = records

	v := NewView(nil, rag)
	v.SetDimensions(80, 20)
	load(t, v, "long")

	maxOffset := len(v.Lines()) - v.visibleLines()
	require.Positive(t, maxOffset)

	keys := func(k ...string) {
		for _, s := range k {
			v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
		}
	}

	keys("j", "j")
	assert.Equal(t, 2, v.ScrollOffset())

	keys("k")
	assert.Equal(t, 1, v.ScrollOffset())

	keys("G")
	assert.Equal(t, maxOffset, v.ScrollOffset())
	keys("j")
	assert.Equal(t, maxOffset, v.ScrollOffset())

	keys("g")
	assert.Equal(t, 0, v.ScrollOffset())
	keys("k")
	assert.Equal(t, 0, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, min(v.visibleLines(), maxOffset), v.ScrollOffset())
	v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 0, v.ScrollOffset())

	assert.Contains(t, v.View(), "[0%] Line 1-")
}

func TestView_Esc_BackToSearch(t *testing.T) {
	v := NewView(nil, tuitest.NewRAG())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := NewView(nil, nil)

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"breaks on words", "the quick brown fox jumps", 10, []string{"the quick", "brown fox", "jumps"}},
		{"keeps paragraphs", "one\n\ntwo", 20, []string{"one", "", "two"}},
		{"long word", "a supercalifragilistic b", 5, []string{"a", "supercalifragilistic", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrap(tt.text, tt.width)
			assert.Equal(t, tt.want, got)
			for _, line := range got {
				if !strings.Contains(line, "supercalifragilistic") {
					assert.LessOrEqual(t, len([]rune(line)), tt.width)
				}
			}
		})
	}
}
