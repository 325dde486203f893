package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/chunks"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/system"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// searchView is the styled search view component.
	searchView *search.View

	// chunksView shows the stored chunks of one document.
	chunksView *chunks.View

	// systemView shows mode, backend health and index statistics.
	systemView *system.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// query is the current search query (kept for accessor compatibility).
	query string

	// results holds the current search results (kept for accessor compatibility).
	results []domain.SearchResult

	// selectedIndex is the currently selected result (kept for accessor compatibility).
	selectedIndex int

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	menuView := menu.NewView(s)
	menuView.SetMode(ports.RAG.Mode())

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		menuView:    menuView,
		searchView:  search.NewView(s, nil, ports.RAG, searchOptions(ports)),
		chunksView:  chunks.NewView(s, ports.RAG),
		systemView:  system.NewView(s, ports.RAG, ports.Settings),
		currentView: messages.ViewMenu,
	}, nil
}

// searchOptions takes the result limit and threshold from settings when
// a settings service is available.
func searchOptions(ports *Ports) domain.SearchOptions {
	defaults := domain.DefaultSettings().Search
	opts := domain.SearchOptions{Limit: defaults.Limit, Threshold: defaults.Threshold}
	if ports.Settings == nil {
		return opts
	}
	settings, err := ports.Settings.Get()
	if err != nil || settings == nil {
		return opts
	}
	if settings.Search.Limit > 0 {
		opts.Limit = settings.Search.Limit
	}
	opts.Threshold = settings.Search.Threshold
	return opts
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.chunksView.WithContext(ctx)
	a.systemView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("sercha-rag"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Forward to all views for proper sizing
		a.menuView.SetDimensions(msg.Width, msg.Height)
		a.searchView.SetDimensions(msg.Width, msg.Height)
		a.chunksView.SetDimensions(msg.Width, msg.Height)
		a.systemView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Help toggles from views that don't take text input
		if msg.String() == "?" && (a.currentView == messages.ViewMenu || a.currentView == messages.ViewStatus) {
			a.currentView = messages.ViewHelp
			return a, nil
		}

		// Forward key messages to active view
		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
			return a, cmd

		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
			a.syncSearchState()
			return a, cmd

		case messages.ViewChunks:
			a.chunksView, cmd = a.chunksView.Update(msg)
			return a, cmd

		case messages.ViewStatus:
			a.systemView, cmd = a.systemView.Update(msg)
			return a, cmd

		case messages.ViewHelp:
			// Esc or ? from help goes to menu
			if msg.Type == tea.KeyEsc || msg.String() == "?" {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			return a, nil
		}
		return a, nil

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.results = a.searchView.Results()
		a.err = a.searchView.Err()
		a.selectedIndex = 0
		return a, cmd

	case messages.DocumentDeleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.syncSearchState()
		return a, cmd

	case messages.ViewChanged:
		previous := a.currentView
		a.currentView = msg.View
		// Initialise views when switching to them
		switch msg.View {
		case messages.ViewSearch:
			// Returning from the chunk view keeps the result list.
			if previous != messages.ViewChunks {
				a.searchView.Reset()
			}
			return a, a.searchView.Init()
		case messages.ViewStatus:
			a.systemView.Reset()
			return a, a.systemView.Init()
		case messages.ViewMenu:
			a.menuView.SetMode(a.ports.RAG.Mode())
		case messages.ViewChunks, messages.ViewHelp:
			// Other views don't need special initialisation
		}
		return a, nil

	case messages.DocumentSelected:
		a.currentView = messages.ViewChunks
		return a, a.chunksView.SetDocument(msg.DocumentID, msg.Title)

	case messages.ChunksLoaded:
		a.chunksView, cmd = a.chunksView.Update(msg)
		return a, cmd

	case messages.StatsLoaded, messages.ModeChanged:
		a.systemView, cmd = a.systemView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		// Forward to current view
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewChunks:
			a.chunksView, cmd = a.chunksView.Update(msg)
		case messages.ViewMenu, messages.ViewStatus, messages.ViewHelp:
			// Other views don't handle error messages
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewChunks:
		a.chunksView, cmd = a.chunksView.Update(msg)
	case messages.ViewStatus:
		a.systemView, cmd = a.systemView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
	}

	return a, cmd
}

// syncSearchState copies search view state for the accessors.
func (a *App) syncSearchState() {
	a.query = a.searchView.Query()
	a.results = a.searchView.Results()
	a.selectedIndex = a.searchView.SelectedIndex()
	a.err = a.searchView.Err()
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewChunks:
		return a.chunksView.View()
	case messages.ViewStatus:
		return a.systemView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Search:
  (type)      Enter a question
  enter       Submit search
  esc         Back to Menu

Results:
  j/k, ↑/↓    Navigate results
  enter       Actions (view chunks, delete document)
  n           New search

Chunks:
  j/k, g/G    Scroll
  pgup/pgdn   Page
  esc         Back to Results

Status:
  ↑/↓, enter  Pick and switch mode
  tab         Next mode
  s           Save current mode as start-up mode
  r           Refresh statistics

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.query
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.results
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.selectedIndex
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.chunksView.SetDimensions(width, height)
	a.systemView.SetDimensions(width, height)
}
