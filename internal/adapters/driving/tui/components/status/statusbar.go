// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateLoading   State = "loading"
	StateError     State = "error"
	StateHelp      State = "help"
	StateResults   State = "results"
	StateStatus    State = "status"
)

// Bar displays the broker mode, application status and keybinding hints.
// A fallback warning, when set, replaces the state text until cleared.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	mode        domain.Mode
	message     string
	warning     string
	resultCount int
	width       int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// The bar's own padding is part of its width.
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	padding := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the mode badge followed by the state or warning.
func (s *Bar) renderLeft() string {
	var badge string
	if s.mode != "" {
		badge = s.styles.ModeBadge(s.mode).Render(s.mode.Label()) + " "
	}

	if s.warning != "" && s.state != StateError {
		return badge + s.styles.FallbackNotice(s.warning)
	}

	switch s.state {
	case StateSearching:
		return badge + s.styles.Muted.Render("Searching...")
	case StateLoading:
		return badge + s.styles.Muted.Render("Loading...")
	case StateError:
		if s.message != "" {
			return badge + s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return badge + s.styles.Error.Render("Error")
	case StateHelp:
		return badge + s.styles.Normal.Render("Help")
	case StateReady, StateResults, StateStatus:
		if s.message != "" {
			return badge + s.styles.Normal.Render(s.message)
		}
		if s.resultCount > 0 {
			return badge + s.styles.Normal.Render(fmt.Sprintf("%d results", s.resultCount))
		}
	}
	return badge + s.styles.Muted.Render("Ready")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch {
	case s.state == StateResults && s.resultCount > 0:
		bindings = s.keymap.ResultsHelp()
	case s.state == StateStatus:
		bindings = s.keymap.StatusHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMode sets the broker mode shown in the badge.
func (s *Bar) SetMode(mode domain.Mode) {
	s.mode = mode
}

// Mode returns the displayed mode.
func (s *Bar) Mode() domain.Mode {
	return s.mode
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetFallback records whether the last call was served by simulation.
func (s *Bar) SetFallback(used bool, warning string) {
	if !used {
		s.warning = ""
		return
	}
	if warning == "" {
		warning = "real backend unavailable"
	}
	s.warning = warning
}

// Warning returns the current fallback warning.
func (s *Bar) Warning() string {
	return s.warning
}

// SetResultCount sets the result count.
func (s *Bar) SetResultCount(count int) {
	s.resultCount = count
}

// ResultCount returns the current result count.
func (s *Bar) ResultCount() int {
	return s.resultCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state. The mode is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.warning = ""
	s.resultCount = 0
}
