package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/tubular/internal/tui/styles"
)

// SuggestFunc returns history entries matching the typed text
type SuggestFunc func(input string, limit int) []string

const maxSuggestions = 8

// SearchBox is the search modal: a text input with history suggestions
type SearchBox struct {
	input       textinput.Model
	suggest     SuggestFunc
	suggestions []string
	cursor      int // -1 means the typed text, otherwise a suggestion row
	order       string
	visible     bool
	width       int
	height      int
}

// NewSearchBox creates a hidden search box
func NewSearchBox(suggest SuggestFunc) SearchBox {
	ti := textinput.New()
	ti.Placeholder = "Search videos..."
	ti.CharLimit = 200
	ti.Width = 40
	ti.Prompt = "› "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SearchBox{input: ti, suggest: suggest, cursor: -1}
}

// Show opens the box with an empty input, listing recent searches
func (s *SearchBox) Show(order string) {
	s.visible = true
	s.order = order
	s.input.SetValue("")
	s.input.Focus()
	s.refresh()
}

// Hide closes the box
func (s *SearchBox) Hide() {
	s.visible = false
	s.input.Blur()
}

func (s SearchBox) IsVisible() bool { return s.visible }

// SetSize updates the dimensions the modal is centered in
func (s *SearchBox) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.input.Width = max(width/2, 20)
}

// Query returns the selected suggestion, or the typed text
func (s SearchBox) Query() string {
	if s.cursor >= 0 && s.cursor < len(s.suggestions) {
		return s.suggestions[s.cursor]
	}
	return strings.TrimSpace(s.input.Value())
}

func (s SearchBox) Suggestions() []string { return s.suggestions }

func (s *SearchBox) refresh() {
	s.cursor = -1
	if s.suggest == nil {
		s.suggestions = nil
		return
	}
	s.suggestions = s.suggest(s.input.Value(), maxSuggestions)
}

// Init starts the cursor blink
func (s SearchBox) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input. submitted is true when the user pressed enter with
// a non-empty query.
func (s SearchBox) Update(msg tea.Msg) (SearchBox, tea.Cmd, bool) {
	if !s.visible {
		return s, nil, false
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			s.Hide()
			return s, nil, false

		case "enter":
			if s.Query() == "" {
				return s, nil, false
			}
			s.visible = false
			s.input.Blur()
			return s, nil, true

		case "down", "ctrl+n":
			if s.cursor < len(s.suggestions)-1 {
				s.cursor++
			}
			return s, nil, false

		case "up", "ctrl+p":
			if s.cursor >= 0 {
				s.cursor--
			}
			return s, nil, false

		case "tab":
			if s.cursor >= 0 && s.cursor < len(s.suggestions) {
				s.input.SetValue(s.suggestions[s.cursor])
				s.input.CursorEnd()
				s.refresh()
			}
			return s, nil, false
		}
	}

	prev := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if s.input.Value() != prev {
		s.refresh()
	}
	return s, cmd, false
}

// View renders the centered modal
func (s SearchBox) View() string {
	if !s.visible {
		return ""
	}

	modalWidth := min(max(s.width*2/3, 40), 80)

	var b strings.Builder
	title := "Search"
	if s.order != "" {
		title += styles.DimStyle.Render(" · " + s.order)
	}
	b.WriteString(styles.ModalTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	for i, entry := range s.suggestions {
		style := styles.NormalItemStyle
		if i == s.cursor {
			style = styles.SelectedItemStyle
		}
		b.WriteString(style.Render(styles.Truncate(entry, modalWidth-10)))
		b.WriteString("\n")
	}
	if len(s.suggestions) == 0 && s.input.Value() == "" {
		b.WriteString(styles.DimStyle.Render("No recent searches"))
	}

	content := lipgloss.NewStyle().Width(modalWidth - 4).Render(b.String())
	modal := styles.ModalStyle.Width(modalWidth).Render(content)
	return lipgloss.Place(s.width, s.height, lipgloss.Center, lipgloss.Center, modal)
}
