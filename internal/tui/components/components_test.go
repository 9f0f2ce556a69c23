package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tubular/internal/domain"
)

func videos(titles ...string) []*domain.Video {
	out := make([]*domain.Video, len(titles))
	for i, title := range titles {
		out[i] = &domain.Video{ID: title, Title: title}
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestVideoList_Navigation(t *testing.T) {
	l := NewVideoList(nil)
	l.SetSize(80, 10)
	l.SetItems(videos("a", "b", "c"))

	assert.False(t, l.AtEnd())
	l.Update(key("G"))
	assert.Equal(t, 2, l.Cursor())
	assert.True(t, l.AtEnd())

	l.Update(key("j"))
	assert.Equal(t, 2, l.Cursor(), "cursor stops at the last row")

	l.Update(key("g"))
	assert.Equal(t, 0, l.Cursor())

	l.Update(key("k"))
	assert.Equal(t, 0, l.Cursor())
}

func TestVideoList_SetItemsClampsCursor(t *testing.T) {
	l := NewVideoList(nil)
	l.SetSize(80, 10)
	l.SetItems(videos("a", "b", "c"))
	l.Update(key("G"))

	l.SetItems(videos("a"))
	assert.Equal(t, 0, l.Cursor())

	l.SetItems(nil)
	_, ok := l.Selected()
	assert.False(t, ok)
	assert.Contains(t, l.View("nothing here"), "nothing here")
}

func TestVideoList_Filter(t *testing.T) {
	items := videos("Go tutorial", "Cooking pasta", "Go concurrency")
	filter := func(pattern string) []int {
		var rows []int
		for i, v := range items {
			if strings.Contains(strings.ToLower(v.Title), strings.ToLower(pattern)) {
				rows = append(rows, i)
			}
		}
		return rows
	}

	l := NewVideoList(filter)
	l.SetSize(80, 10)
	l.SetItems(items)

	l.StartFilter()
	require.True(t, l.IsFilterTyping())
	l.Update(key("go"))
	assert.Equal(t, 2, l.ItemCount())
	assert.False(t, l.AtEnd(), "filtered lists never trigger paging")

	// enter keeps the filter but returns keys to navigation
	l.Update(key("enter"))
	assert.True(t, l.IsFiltering())
	assert.False(t, l.IsFilterTyping())
	assert.Contains(t, l.View(""), "[2/3]")

	l.Update(key("j"))
	v, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "Go concurrency", v.Title)

	l.Update(key("esc"))
	assert.False(t, l.IsFiltering())
	assert.Equal(t, 3, l.ItemCount())
}

func TestVideoList_FilterNoMatches(t *testing.T) {
	l := NewVideoList(func(string) []int { return []int{} })
	l.SetSize(80, 10)
	l.SetItems(videos("a", "b"))

	l.StartFilter()
	l.Update(key("zzz"))
	assert.Equal(t, 0, l.ItemCount())
	assert.Contains(t, l.View("empty"), "No matches")
}

func TestSearchBox_SubmitTypedText(t *testing.T) {
	s := NewSearchBox(nil)
	s.SetSize(100, 30)
	s.Show("relevance")

	s, _, submitted := s.Update(key("  cats "))
	assert.False(t, submitted)

	s, _, submitted = s.Update(key("enter"))
	assert.True(t, submitted)
	assert.Equal(t, "cats", s.Query())
	assert.False(t, s.IsVisible())
}

func TestSearchBox_EmptyEnterIsIgnored(t *testing.T) {
	s := NewSearchBox(nil)
	s.Show("")

	s, _, submitted := s.Update(key("enter"))
	assert.False(t, submitted)
	assert.True(t, s.IsVisible())

	s, _, _ = s.Update(key("esc"))
	assert.False(t, s.IsVisible())
}

func TestSearchBox_Suggestions(t *testing.T) {
	history := []string{"golang generics", "gophers", "pasta"}
	var asked []string
	suggest := func(input string, limit int) []string {
		asked = append(asked, input)
		var out []string
		for _, h := range history {
			if strings.HasPrefix(h, input) {
				out = append(out, h)
			}
		}
		return out
	}

	s := NewSearchBox(suggest)
	s.SetSize(100, 30)
	s.Show("")
	assert.Equal(t, history, s.Suggestions())

	s, _, _ = s.Update(key("go"))
	assert.Equal(t, []string{"golang generics", "gophers"}, s.Suggestions())
	assert.Equal(t, "go", asked[len(asked)-1])

	s, _, _ = s.Update(key("down"))
	s, _, _ = s.Update(key("down"))
	assert.Equal(t, "gophers", s.Query())

	s, _, _ = s.Update(key("up"))
	s, _, _ = s.Update(key("tab"))
	assert.Equal(t, []string{"golang generics"}, s.Suggestions())
	assert.Equal(t, "golang generics", s.Query())

	s, _, submitted := s.Update(key("enter"))
	assert.True(t, submitted)
	assert.Equal(t, "golang generics", s.Query())
}
