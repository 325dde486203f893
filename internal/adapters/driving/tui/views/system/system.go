// Package system provides the mode and backend status view for the TUI.
package system

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Errors returned through messages.
var (
	ErrNoRAGService      = errors.New("rag service is required")
	ErrNoSettingsService = errors.New("settings service not available")
)

// View lists the broker modes, backend health, index statistics and
// projected cost. The highlighted mode is applied with enter.
type View struct {
	styles    *styles.Styles
	statusbar *status.Bar

	rag      driving.RAGService
	settings driving.SettingsService
	ctx      context.Context

	stats    *domain.SystemStats
	warning  string
	message  string
	err      error
	selected int
	loading  bool

	width  int
	height int
	ready  bool
}

// NewView creates a new system view. settings may be nil, in which case the
// mode cannot be saved.
func NewView(s *styles.Styles, rag driving.RAGService, settings driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	bar := status.NewBar(s, keymap.DefaultKeyMap())
	bar.SetState(status.StateStatus)

	return &View{
		styles:    s,
		statusbar: bar,
		rag:       rag,
		settings:  settings,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init selects the current mode and loads statistics.
func (v *View) Init() tea.Cmd {
	v.selected = v.modeIndex()
	return v.loadStats()
}

// Reset clears transient state before the view is shown again.
func (v *View) Reset() {
	v.message = ""
	v.err = nil
	v.warning = ""
}

// loadStats returns a command that fetches system statistics.
func (v *View) loadStats() tea.Cmd {
	rag, ctx := v.rag, v.ctx
	v.loading = true
	return func() tea.Msg {
		if rag == nil {
			return messages.StatsLoaded{Err: ErrNoRAGService}
		}
		res, err := rag.Stats(ctx)
		return messages.StatsLoaded{
			Stats:        res.Value,
			UsedFallback: res.UsedFallback,
			Warning:      res.Warning,
			Err:          err,
		}
	}
}

// Update handles messages for the system view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.StatsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		stats := msg.Stats
		v.stats = &stats
		v.warning = ""
		if msg.UsedFallback {
			v.warning = msg.Warning
		}
		v.statusbar.SetFallback(msg.UsedFallback, msg.Warning)
		return v, nil

	case messages.ModeChanged:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.message = msg.Change.Message
		v.selected = v.modeIndex()
		if msg.Saved {
			return v, nil
		}
		// Health and statistics depend on the mode.
		return v, v.loadStats()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	modes := domain.AllModes()

	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(modes)-1 {
			v.selected++
		}
	case "enter":
		return v, v.switchMode(modes[v.selected])
	case "tab":
		next := modes[(v.modeIndex()+1)%len(modes)]
		return v, v.switchMode(next)
	case "s":
		return v, v.saveMode()
	case "r":
		return v, v.loadStats()
	}
	return v, nil
}

// switchMode returns a command that moves the broker to mode.
func (v *View) switchMode(mode domain.Mode) tea.Cmd {
	rag := v.rag
	return func() tea.Msg {
		if rag == nil {
			return messages.ModeChanged{Err: ErrNoRAGService}
		}
		change, err := rag.ToggleMode(mode.String())
		return messages.ModeChanged{Change: change, Err: err}
	}
}

// saveMode returns a command that persists the current mode for start-up.
func (v *View) saveMode() tea.Cmd {
	rag, settings := v.rag, v.settings
	return func() tea.Msg {
		if rag == nil {
			return messages.ModeChanged{Err: ErrNoRAGService}
		}
		if settings == nil {
			return messages.ModeChanged{Err: ErrNoSettingsService}
		}
		mode := rag.Mode()
		if err := settings.SetMode(mode); err != nil {
			return messages.ModeChanged{Err: fmt.Errorf("save mode: %w", err)}
		}
		return messages.ModeChanged{
			Change: domain.ModeChange{
				Previous: mode,
				Current:  mode,
				Message:  fmt.Sprintf("Saved %s as the start-up mode", mode.Label()),
			},
			Saved: true,
		}
	}
}

// modeIndex returns the position of the broker's mode in AllModes.
func (v *View) modeIndex() int {
	if v.rag == nil {
		return 0
	}
	return max(slices.Index(domain.AllModes(), v.rag.Mode()), 0)
}

// View renders the system view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("System Status"))
	b.WriteString("\n\n")

	v.renderModes(&b)

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case v.loading && v.stats == nil:
		b.WriteString(v.styles.Muted.Render("Loading statistics..."))
		b.WriteString("\n\n")
	}

	if v.stats != nil {
		v.renderBackends(&b)
		v.renderIndex(&b)
	}

	if v.message != "" {
		b.WriteString(v.styles.Success.Render(v.message))
		b.WriteString("\n\n")
	}

	if v.rag != nil {
		v.statusbar.SetMode(v.rag.Mode())
	}
	b.WriteString(v.statusbar.View())

	return b.String()
}

func (v *View) renderModes(b *strings.Builder) {
	b.WriteString(v.styles.Subtitle.Render("Mode"))
	b.WriteString("\n")

	var current domain.Mode
	if v.rag != nil {
		current = v.rag.Mode()
	}

	for i, m := range domain.AllModes() {
		cursor := "  "
		if i == v.selected {
			cursor = "> "
		}
		marker := " "
		if m == current {
			marker = "*"
		}
		line := fmt.Sprintf("%s%s %-24s %s", cursor, marker, m.Label(), m.Description())
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (v *View) renderBackends(b *strings.Builder) {
	c := v.stats.Connections

	b.WriteString(v.styles.Subtitle.Render("Backends"))
	b.WriteString("\n")
	v.renderHealth(b, "Embeddings", c.Embeddings)
	v.renderHealth(b, "Store", c.Store)
	if v.warning != "" {
		b.WriteString("  " + v.styles.FallbackNotice(v.warning))
		b.WriteString("\n")
	}
	for _, r := range c.Recommendations {
		b.WriteString(v.styles.Muted.Render("  - " + r))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (v *View) renderHealth(b *strings.Builder, name string, h domain.BackendHealth) {
	fmt.Fprintf(b, "  %-11s real %s, simulated %s\n", name+":", v.availability(h.Real), v.availability(h.Simulated))
	if h.Error != "" {
		b.WriteString(v.styles.Muted.Render("    " + h.Error))
		b.WriteString("\n")
	}
}

func (v *View) availability(ok bool) string {
	if ok {
		return v.styles.Success.Render("OK")
	}
	return v.styles.Error.Render("unavailable")
}

func (v *View) renderIndex(b *strings.Builder) {
	s := v.stats

	b.WriteString(v.styles.Subtitle.Render("Index"))
	b.WriteString("\n")
	fmt.Fprintf(b, "  Health:     %s (%s)\n", s.Health, s.Mode)
	fmt.Fprintf(b, "  Documents:  %d\n", s.Index.TotalDocuments)
	fmt.Fprintf(b, "  Chunks:     %d\n", s.Index.TotalChunks)
	fmt.Fprintf(b, "  Dimensions: %d\n", s.Index.AverageEmbeddingDimension)

	langs := make([]string, 0, len(s.Index.Languages))
	for _, l := range s.Index.Languages {
		langs = append(langs, string(l))
	}
	if len(langs) > 0 {
		fmt.Fprintf(b, "  Languages:  %s\n", strings.Join(langs, ", "))
	}
	fmt.Fprintf(b, "  Cost:       $%.2f/month\n", s.Cost.Total)
	b.WriteString("\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Selected returns the highlighted mode index.
func (v *View) Selected() int {
	return v.selected
}

// Stats returns the last loaded statistics.
func (v *View) Stats() *domain.SystemStats {
	return v.stats
}

// Message returns the last mode change message.
func (v *View) Message() string {
	return v.message
}

// Warning returns the fallback warning of the last statistics load.
func (v *View) Warning() string {
	return v.warning
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
