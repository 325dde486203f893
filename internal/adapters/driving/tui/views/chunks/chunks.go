// Package chunks provides the view listing a document's stored chunks.
package chunks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ErrNoRAGService indicates that no RAG service was provided.
var ErrNoRAGService = errors.New("rag service is required")

// View shows every chunk of one document, scrollable.
type View struct {
	styles *styles.Styles
	rag    driving.RAGService
	ctx    context.Context

	documentID string
	title      string
	records    []domain.VectorRecord
	warning    string

	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new chunk view.
func NewView(s *styles.Styles, rag driving.RAGService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		rag:    rag,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument selects a document and returns the command loading its chunks.
func (v *View) SetDocument(documentID, title string) tea.Cmd {
	v.documentID = documentID
	v.title = title
	v.records = nil
	v.lines = nil
	v.warning = ""
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadChunks()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadChunks returns a command that loads the document's chunks.
func (v *View) loadChunks() tea.Cmd {
	rag, ctx, id := v.rag, v.ctx, v.documentID
	return func() tea.Msg {
		if rag == nil {
			return messages.ChunksLoaded{DocumentID: id, Err: ErrNoRAGService}
		}
		res, err := rag.DocumentChunks(ctx, id)
		return messages.ChunksLoaded{
			DocumentID:   id,
			Records:      res.Value,
			UsedFallback: res.UsedFallback,
			Warning:      res.Warning,
			Err:          err,
		}
	}
}

// Update handles messages for the chunk view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChunksLoaded:
		if msg.DocumentID != v.documentID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.records = msg.Records
		if msg.UsedFallback {
			v.warning = msg.Warning
			if v.warning == "" {
				v.warning = "real backend unavailable"
			}
		}
		v.layout()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}

	return v, nil
}

// layout renders every chunk into display lines for the current width.
func (v *View) layout() {
	v.lines = nil
	if len(v.records) == 0 {
		return
	}

	contentWidth := max(v.width-6, 20)
	for i, r := range v.records {
		if i > 0 {
			v.lines = append(v.lines, "")
		}
		c := r.Chunk
		v.lines = append(v.lines, fmt.Sprintf("[%d] %s  %d tokens, %s, %d dims",
			c.ChunkIndex, c.ID, c.TokenCount, c.Language, r.Embedding.Dimensions()))
		for _, line := range wrap(c.Content, contentWidth) {
			v.lines = append(v.lines, "    "+line)
		}
	}
}

// wrap breaks text on word boundaries into lines of at most width runes.
// Paragraph breaks are kept. A word longer than width gets its own line.
func wrap(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, status, help and padding
	return max(v.height-8, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the chunk view.
func (v *View) View() string {
	var b strings.Builder

	title := v.title
	if title == "" {
		title = v.documentID
	}
	if title == "" {
		title = "Document Chunks"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s · %d chunks", v.documentID, len(v.records))))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No chunks stored)"))
	default:
		end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
		for _, line := range v.lines[v.scrollOffset:end] {
			b.WriteString(v.styles.Normal.Render(line))
			b.WriteString("\n")
		}
		if len(v.lines) > v.visibleLines() {
			percentage := 0
			if v.maxScrollOffset() > 0 {
				percentage = v.scrollOffset * 100 / v.maxScrollOffset()
			}
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
				percentage, v.scrollOffset+1, end, len(v.lines))))
		}
	}

	if v.warning != "" {
		b.WriteString("\n\n")
		b.WriteString(v.styles.FallbackNotice(v.warning))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// DocumentID returns the selected document.
func (v *View) DocumentID() string {
	return v.documentID
}

// Records returns the loaded chunks.
func (v *View) Records() []domain.VectorRecord {
	return v.records
}

// Lines returns the rendered display lines.
func (v *View) Lines() []string {
	return v.lines
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Loading reports whether chunks are being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Warning returns the fallback warning of the last load.
func (v *View) Warning() string {
	return v.warning
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
