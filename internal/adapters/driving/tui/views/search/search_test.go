package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/tuitest"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// newReadyView returns a sized view backed by a scripted RAG service.
func newReadyView(rag *tuitest.RAG) *View {
	view := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), rag, domain.SearchOptions{Limit: 5, Threshold: 0.3})
	view.SetDimensions(120, 40)
	return view
}

// submit types query, presses enter and feeds the resulting message back.
func submit(t *testing.T, view *View, query string) tea.Msg {
	t.Helper()
	view.SetQuery(query)
	_, cmd := view.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	msg := cmd()
	view.Update(msg)
	return msg
}

func TestNewView(t *testing.T) {
	view := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), tuitest.NewRAG(), domain.SearchOptions{})

	require.NotNil(t, view)
	assert.False(t, view.Ready())
	assert.Equal(t, "", view.Query())
	assert.True(t, view.InputFocused())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, nil, nil, domain.SearchOptions{})

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keymap)
}

func TestView_WithContext(t *testing.T) {
	view := NewView(nil, nil, nil, domain.SearchOptions{})
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	result := view.WithContext(ctx)

	assert.Equal(t, view, result)
	assert.Equal(t, ctx, view.ctx)
}

func TestView_Init_ShowsMode(t *testing.T) {
	rag := tuitest.NewRAG()
	rag.CurrentMode = domain.ModeHybridStorage
	view := newReadyView(rag)

	cmd := view.Init()

	assert.NotNil(t, cmd) // Blink command from input
	assert.Equal(t, domain.ModeHybridStorage, view.StatusBar().Mode())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil, domain.SearchOptions{})

	view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.True(t, view.Ready())
	assert.Equal(t, 100, view.Width())
	assert.Equal(t, 30, view.Height())
}

func TestView_Typing(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())

	for _, k := range []string{"p", "a", "r", "i", "s"} {
		view.Update(keyMsg(k))
	}

	assert.Equal(t, "paris", view.Query())
	assert.True(t, view.InputFocused())
}

func TestView_Enter_EmptyQuery(t *testing.T) {
	rag := tuitest.NewRAG()
	view := newReadyView(rag)
	view.SetQuery("   ")

	_, cmd := view.Update(keyMsg("enter"))

	assert.Nil(t, cmd)
	assert.Empty(t, rag.Queries)
	assert.True(t, view.InputFocused())
}

func TestView_Search(t *testing.T) {
	rag := tuitest.NewRAG()
	view := newReadyView(rag)

	msg := submit(t, view, "  capital of France ")

	completed, ok := msg.(messages.SearchCompleted)
	require.True(t, ok)
	assert.Equal(t, "capital of France", completed.Query)
	assert.Equal(t, []string{"capital of France"}, rag.Queries)
	assert.Equal(t, domain.SearchOptions{Limit: 5, Threshold: 0.3}, rag.LastOptions)

	assert.Len(t, view.Results(), 2)
	assert.False(t, view.InputFocused())
	assert.Equal(t, status.StateResults, view.StatusBar().State())
	assert.Equal(t, 2, view.StatusBar().ResultCount())
	assert.Empty(t, view.StatusBar().Warning())
	assert.NoError(t, view.Err())
}

func TestView_Search_Fallback(t *testing.T) {
	rag := tuitest.NewRAG()
	rag.Fallback = true
	rag.Warning = "store: connection refused"
	view := newReadyView(rag)

	submit(t, view, "paris")

	assert.Len(t, view.Results(), 2)
	assert.Equal(t, "store: connection refused", view.StatusBar().Warning())
	assert.Contains(t, view.View(), "Simulated: store: connection refused")
}

func TestView_Search_Error(t *testing.T) {
	rag := tuitest.NewRAG()
	rag.Err = errors.New("core unavailable")
	view := newReadyView(rag)

	submit(t, view, "paris")

	require.Error(t, view.Err())
	assert.Equal(t, status.StateError, view.StatusBar().State())
	assert.Contains(t, view.View(), "core unavailable")
}

func TestView_Search_NoService(t *testing.T) {
	view := NewView(nil, nil, nil, domain.SearchOptions{})
	view.SetDimensions(80, 24)

	msg := submit(t, view, "paris")

	errMsg, ok := msg.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, ErrNoRAGService)
	assert.ErrorIs(t, view.Err(), ErrNoRAGService)
}

func TestView_Esc_GoesToMenu(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())

	_, cmd := view.Update(keyMsg("esc"))

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_ResultsNavigation(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())
	submit(t, view, "france")

	view.Update(keyMsg("j"))
	assert.Equal(t, 1, view.SelectedIndex())

	view.Update(keyMsg("down"))
	assert.Equal(t, 1, view.SelectedIndex()) // Stays at bottom

	view.Update(keyMsg("k"))
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_NewSearch(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())
	submit(t, view, "france")

	view.Update(keyMsg("n"))

	assert.True(t, view.InputFocused())
	assert.Equal(t, "", view.Query())
	assert.Len(t, view.Results(), 2) // Results kept until the next search
}

func TestView_ActionMenu_ViewChunks(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())
	submit(t, view, "france")

	view.Update(keyMsg("enter"))
	require.True(t, view.ActionMenuVisible())
	assert.Contains(t, view.View(), ActionViewChunks)

	_, cmd := view.Update(keyMsg("enter"))

	assert.False(t, view.ActionMenuVisible())
	require.NotNil(t, cmd)
	assert.Equal(t, messages.DocumentSelected{DocumentID: "doc-1", Title: "Doc-1"}, cmd())
}

func TestView_ActionMenu_Delete(t *testing.T) {
	rag := tuitest.NewRAG()
	view := newReadyView(rag)
	submit(t, view, "france")

	view.Update(keyMsg("enter"))
	view.Update(keyMsg("j"))
	_, cmd := view.Update(keyMsg("enter"))
	require.NotNil(t, cmd)

	msg := cmd()
	deleted, ok := msg.(messages.DocumentDeleted)
	require.True(t, ok)
	assert.Equal(t, "doc-1", deleted.DocumentID)
	assert.Equal(t, []string{"doc-1"}, rag.Deleted)

	view.Update(msg)
	require.Len(t, view.Results(), 1)
	assert.Equal(t, "doc-2", view.Results()[0].Record.Chunk.DocumentID)
	assert.Equal(t, "Deleted doc-1", view.StatusBar().Message())
}

func TestView_ActionMenu_DeleteError(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())
	submit(t, view, "france")

	view.Update(messages.DocumentDeleted{DocumentID: "doc-1", Err: errors.New("store down")})

	assert.EqualError(t, view.Err(), "store down")
	assert.Len(t, view.Results(), 2)
}

func TestView_ActionMenu_Cancel(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())
	submit(t, view, "france")

	view.Update(keyMsg("enter"))
	view.Update(keyMsg("j"))
	view.Update(keyMsg("j"))
	_, cmd := view.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.False(t, view.ActionMenuVisible())

	view.Update(keyMsg("enter"))
	view.Update(keyMsg("esc"))
	assert.False(t, view.ActionMenuVisible())
}

func TestView_ErrorOccurred(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())

	view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, view.Err(), "boom")
	assert.Equal(t, "boom", view.StatusBar().Message())

	view.ClearError()
	assert.NoError(t, view.Err())
	assert.Equal(t, status.StateReady, view.StatusBar().State())
}

func TestView_View(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		view := NewView(nil, nil, nil, domain.SearchOptions{})
		assert.Equal(t, "Initialising...", view.View())
	})

	t.Run("with results", func(t *testing.T) {
		view := newReadyView(tuitest.NewRAG())
		submit(t, view, "france")

		out := view.View()

		assert.Contains(t, out, "Sercha RAG")
		assert.Contains(t, out, "Results (2)")
		assert.Contains(t, out, "Paris is the capital of France.")
		assert.Contains(t, out, "0.91")
	})
}

func TestView_Reset(t *testing.T) {
	view := newReadyView(tuitest.NewRAG())
	submit(t, view, "france")
	view.Update(keyMsg("enter"))

	view.Reset()

	assert.True(t, view.InputFocused())
	assert.Empty(t, view.Query())
	assert.Empty(t, view.Results())
	assert.False(t, view.ActionMenuVisible())
	assert.Equal(t, status.StateReady, view.StatusBar().State())
}
