// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query        string
	Results      []domain.SearchResult
	UsedFallback bool
	Warning      string
	Err          error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewChunks lists the stored chunks of one document.
	ViewChunks
	// ViewStatus shows the mode, backend health and index statistics.
	ViewStatus
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewChunks:
		return "chunks"
	case ViewStatus:
		return "status"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentSelected signals a document was picked from the search results.
type DocumentSelected struct {
	DocumentID string
	Title      string
}

// ChunksLoaded carries the stored chunks of a document.
type ChunksLoaded struct {
	DocumentID   string
	Records      []domain.VectorRecord
	UsedFallback bool
	Warning      string
	Err          error
}

// StatsLoaded carries system statistics.
type StatsLoaded struct {
	Stats        domain.SystemStats
	UsedFallback bool
	Warning      string
	Err          error
}

// ModeChanged signals a mode switch finished.
type ModeChanged struct {
	Change domain.ModeChange
	Saved  bool
	Err    error
}

// DocumentDeleted signals a document's chunks were removed.
type DocumentDeleted struct {
	DocumentID   string
	UsedFallback bool
	Warning      string
	Err          error
}
