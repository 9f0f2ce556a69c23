package tui

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/tubular/internal/app"
	"github.com/mmcdole/tubular/internal/collection"
	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/tui/components"
	"github.com/mmcdole/tubular/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSearching
	StateHelp
)

// Header and footer lines around the list
const ChromeHeight = 2

// Options configures the initial view
type Options struct {
	Query string // run this search on start; empty opens the search box
	Order string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState

	browser     *app.Browser
	videos      *collection.Videos
	events      chan domain.Event
	unsubscribe func()
	logger      *slog.Logger

	// UI components
	List    *components.VideoList
	Search  components.SearchBox
	Spinner spinner.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	Title       string // what the list is showing
	StatusMsg   string
	StatusIsErr bool
	lastStatus  domain.Status
}

// NewModel creates the model and subscribes it to a fresh video collection
func NewModel(b *app.Browser, opts Options, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	videos := b.Videos()
	events := make(chan domain.Event, 1)
	unsubscribe := videos.Subscribe(NewChannelObserver(events))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		State:       StateBrowsing,
		browser:     b,
		videos:      videos,
		events:      events,
		unsubscribe: unsubscribe,
		logger:      logger,
		List:        components.NewVideoList(videos.Filter),
		Search:      components.NewSearchBox(b.Suggestions),
		Spinner:     sp,
	}

	if opts.Query != "" {
		m.runSearch(opts.Query, opts.Order)
	} else {
		m.State = StateSearching
		m.Search.Show(b.SearchOrder())
	}
	return m
}

// Videos returns the collection shown by the model
func (m Model) Videos() *collection.Videos {
	return m.videos
}

// Close detaches the model from its collection and stops any load
func (m Model) Close() {
	m.unsubscribe()
	m.videos.Cancel()
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Spinner.Tick, waitForEvent(m.events)}
	if m.Search.IsVisible() {
		cmds = append(cmds, m.Search.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width, max(msg.Height-ChromeHeight, 1))
		m.Search.SetSize(msg.Width, msg.Height)
		return m, nil

	case CollectionChangedMsg:
		m.syncCollection()
		return m, waitForEvent(m.events)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case ClearStatusMsg:
		if !m.StatusIsErr {
			m.StatusMsg = ""
		}
		return m, nil

	case ErrMsg:
		m.setError(msg.Error())
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.State == StateSearching {
		var cmd tea.Cmd
		m.Search, cmd, _ = m.Search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// syncCollection copies the collection state into the view
func (m *Model) syncCollection() {
	m.List.SetItems(m.videos.Items())

	status := m.videos.Status()
	if status == m.lastStatus {
		return
	}
	m.lastStatus = status
	switch status {
	case domain.StatusFailed:
		m.setError(m.videos.ErrorString())
	case domain.StatusCanceled:
		m.setStatus("Stopped")
	case domain.StatusLoading:
		if !m.StatusIsErr {
			m.StatusMsg = ""
		}
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateHelp:
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil

	case StateSearching:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		var submitted bool
		m.Search, cmd, submitted = m.Search.Update(msg)
		if submitted {
			m.runSearch(m.Search.Query(), "")
		}
		if !m.Search.IsVisible() {
			m.State = StateBrowsing
		}
		return m, cmd
	}

	// Filter typing swallows everything
	if m.List.IsFilterTyping() {
		return m, m.List.Update(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.List.IsFiltering() {
			m.List.ClearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		if m.List.IsFiltering() {
			return m, m.List.Update(msg)
		}
		m.List.StartFilter()
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.State = StateSearching
		m.Search.SetSize(m.Width, m.Height)
		m.Search.Show(m.browser.SearchOrder())
		return m, m.Search.Init()

	case key.Matches(msg, Keys.Enter):
		return m.openRelated()

	case key.Matches(msg, Keys.Refresh):
		m.clearStatus()
		m.videos.Reload()
		m.List.Reset()
		m.List.SetItems(m.videos.Items())
		return m, nil

	case key.Matches(msg, Keys.Cancel):
		m.videos.Cancel()
		return m, nil

	case key.Matches(msg, Keys.More):
		m.fetchMore()
		return m, nil

	case key.Matches(msg, Keys.Service):
		return m.nextService()

	case key.Matches(msg, Keys.Order):
		return m.nextOrder()
	}

	cmd := m.List.Update(msg)
	if m.List.AtEnd() {
		m.fetchMore()
	}
	return m, cmd
}

// runSearch starts a new search, abandoning whatever was loading
func (m *Model) runSearch(query, order string) {
	m.clearStatus()
	m.videos.Cancel()
	m.List.Reset()
	app.Search(m.browser, m.videos, query, order)
	text, _ := m.videos.Query()
	m.Title = fmt.Sprintf("Search: %s", text)
	m.List.SetItems(m.videos.Items())
}

func (m *Model) fetchMore() {
	if m.videos.CanFetchMore() {
		m.videos.FetchMore()
	}
}

func (m Model) openRelated() (tea.Model, tea.Cmd) {
	v, ok := m.List.Selected()
	if !ok {
		return m, nil
	}
	m.clearStatus()
	m.videos.Cancel()
	m.List.Reset()
	m.browser.ListRelated(m.videos, v)
	m.Title = "Related: " + v.Title
	m.List.SetItems(m.videos.Items())
	return m, nil
}

func (m Model) nextService() (tea.Model, tea.Cmd) {
	services := m.browser.Services()
	if len(services) < 2 {
		return m, nil
	}
	current := m.browser.Service()
	next := services[0]
	for i, s := range services {
		if s.ID == current {
			next = services[(i+1)%len(services)]
			break
		}
	}
	if err := m.browser.SetService(next.ID); err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.videos.SetService(next.ID)
	m.List.Reset()
	m.Title = ""
	m.setStatus("Switched to " + next.Name)
	return m, ClearStatusCmd(3 * time.Second)
}

func (m Model) nextOrder() (tea.Model, tea.Cmd) {
	info, ok := m.browser.Info()
	if !ok || len(info.SearchOrders) == 0 {
		return m, nil
	}
	current := m.browser.SearchOrder()
	next := info.SearchOrders[0]
	for i, o := range info.SearchOrders {
		if o == current {
			next = info.SearchOrders[(i+1)%len(info.SearchOrders)]
			break
		}
	}

	if m.videos.Mode() == collection.ModeSearch {
		text, _ := m.videos.Query()
		m.runSearch(text, next)
	} else if err := m.browser.SetSearchOrder(next); err != nil {
		m.setError(err.Error())
		return m, nil
	}
	m.setStatus("Order: " + next)
	return m, ClearStatusCmd(3 * time.Second)
}

func (m *Model) setStatus(s string) {
	m.StatusMsg = s
	m.StatusIsErr = false
}

func (m *Model) setError(s string) {
	m.StatusMsg = s
	m.StatusIsErr = true
}

func (m *Model) clearStatus() {
	m.StatusMsg = ""
	m.StatusIsErr = false
}

// Run starts the TUI and blocks until the user quits
func Run(b *app.Browser, opts Options, logger *slog.Logger) error {
	model := NewModel(b, opts, logger)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
