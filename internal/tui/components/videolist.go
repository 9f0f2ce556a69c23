package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/tui/styles"
)

// FilterFunc returns the row indexes matching pattern, best match first
type FilterFunc func(pattern string) []int

// Rows reserved above and below the items for scroll hints
const scrollIndicatorLines = 2

// VideoList is a scrolling, filterable list of videos
type VideoList struct {
	videos []*domain.Video
	filter FilterFunc

	cursor     int
	offset     int
	maxVisible int
	width      int
	height     int

	filterActive bool
	filterQuery  string
	filteredIdx  []int
	filterInput  textinput.Model
}

// NewVideoList creates an empty list. filter may be nil to disable filtering.
func NewVideoList(filter FilterFunc) *VideoList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &VideoList{filter: filter, filterInput: ti}
}

// SetItems replaces the rows, keeping the cursor where it was if possible
func (l *VideoList) SetItems(videos []*domain.Video) {
	l.videos = videos
	if l.filterActive && l.filterQuery != "" {
		l.filteredIdx = l.filter(l.filterQuery)
	}
	l.clampCursor()
}

// Reset empties the list and moves the cursor to the top
func (l *VideoList) Reset() {
	l.clearFilter()
	l.videos = nil
	l.cursor = 0
	l.offset = 0
}

func (l *VideoList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// ItemCount returns the number of visible rows
func (l *VideoList) ItemCount() int {
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return len(l.videos)
}

func (l *VideoList) Cursor() int { return l.cursor }

// Selected returns the video under the cursor
func (l *VideoList) Selected() (*domain.Video, bool) {
	if l.ItemCount() == 0 {
		return nil, false
	}
	idx := l.mapIndex(l.cursor)
	if idx < 0 || idx >= len(l.videos) {
		return nil, false
	}
	return l.videos[idx], true
}

// AtEnd reports whether the cursor sits on the last row of an unfiltered list
func (l *VideoList) AtEnd() bool {
	return !l.filterActive && len(l.videos) > 0 && l.cursor == len(l.videos)-1
}

// StartFilter activates the filter input
func (l *VideoList) StartFilter() {
	if l.filter == nil {
		return
	}
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

func (l *VideoList) IsFiltering() bool { return l.filterActive }

// IsFilterTyping reports whether keystrokes go to the filter input
func (l *VideoList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all rows
func (l *VideoList) ClearFilter() {
	l.clearFilter()
}

// Update handles navigation and filter keys
func (l *VideoList) Update(msg tea.Msg) tea.Cmd {
	if l.IsFilterTyping() {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "esc":
				l.clearFilter()
				return nil
			case "enter":
				l.filterInput.Blur()
				return nil
			case "backspace":
				if l.filterInput.Value() == "" {
					l.clearFilter()
					return nil
				}
			}
		}
		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if l.filterActive {
		switch key.String() {
		case "esc":
			l.clearFilter()
			return nil
		case "/":
			l.filterInput.Focus()
			return nil
		}
	}

	count := l.ItemCount()
	if count == 0 {
		return nil
	}

	switch key.String() {
	case "j", "down":
		if l.cursor < count-1 {
			l.cursor++
		}
	case "k", "up":
		if l.cursor > 0 {
			l.cursor--
		}
	case "g", "home":
		l.cursor = 0
	case "G", "end":
		l.cursor = count - 1
	case "ctrl+d", "pgdown":
		l.cursor = min(l.cursor+max(l.maxVisible/2, 1), count-1)
	case "ctrl+u", "pgup":
		l.cursor = max(l.cursor-max(l.maxVisible/2, 1), 0)
	}
	l.ensureVisible()
	return nil
}

// View renders the rows. status is shown in place of the list when it is empty.
func (l *VideoList) View(empty string) string {
	width := max(l.width, 10)
	count := l.ItemCount()

	if count == 0 {
		msg := empty
		if l.filterActive && l.filterQuery != "" {
			msg = "No matches"
		}
		content := " \n" + styles.DimStyle.Render(msg)
		if l.filterActive {
			content += "\n" + l.renderFilterBar()
		}
		return content
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset+3)

	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	lines = append(lines, header)

	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderItem(l.videos[l.mapIndex(i)], i == l.cursor, width))
	}

	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}
	lines = append(lines, footer)

	if l.filterActive {
		lines = append(lines, l.renderFilterBar())
	}
	return strings.Join(lines, "\n")
}

func (l *VideoList) renderItem(v *domain.Video, selected bool, width int) string {
	dim := styles.DimGray
	meta := v.GetDescription()
	metaWidth := 0
	if meta != "" {
		meta = "  " + meta
		metaWidth = len([]rune(meta))
	}
	title := styles.Truncate(v.Title, width-metaWidth-4)

	parts := []styles.RowPart{{Text: title}}
	if meta != "" {
		parts = append(parts, styles.RowPart{Text: meta, Foreground: &dim})
	}
	return styles.RenderListRow(parts, selected, width)
}

func (l *VideoList) renderFilterBar() string {
	count := ""
	if l.filterQuery != "" {
		count = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.ItemCount(), len(l.videos)))
	}
	return l.filterInput.View() + count
}

func (l *VideoList) recalcMaxVisible() {
	l.maxVisible = l.height - scrollIndicatorLines
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *VideoList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

func (l *VideoList) clampCursor() {
	count := l.ItemCount()
	switch {
	case count == 0:
		l.cursor = 0
		l.offset = 0
	case l.cursor >= count:
		l.cursor = count - 1
	}
	l.ensureVisible()
}

func (l *VideoList) clearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.filteredIdx = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
	l.clampCursor()
}

func (l *VideoList) applyFilter() {
	query := l.filterInput.Value()
	if query == l.filterQuery {
		return
	}
	l.filterQuery = query
	if query == "" {
		l.filteredIdx = nil
	} else {
		l.filteredIdx = l.filter(query)
	}
	l.cursor = 0
	l.offset = 0
}

func (l *VideoList) mapIndex(i int) int {
	if l.filteredIdx != nil && i < len(l.filteredIdx) {
		return l.filteredIdx[i]
	}
	return i
}
