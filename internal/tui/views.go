package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/tui/styles"
)

// View renders the model
func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	switch m.State {
	case StateSearching:
		return m.Search.View()
	case StateHelp:
		return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, m.renderHelp())
	}

	body := lipgloss.NewStyle().
		Height(max(m.Height-ChromeHeight, 1)).
		MaxHeight(max(m.Height-ChromeHeight, 1)).
		Render(m.List.View(m.emptyText()))

	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) emptyText() string {
	switch m.videos.Status() {
	case domain.StatusLoading:
		return "Loading..."
	case domain.StatusFailed:
		return "Failed to load"
	case domain.StatusNull:
		return "Press s to search"
	default:
		return "No videos"
	}
}

// renderHeader shows the service, what is listed and the row count
func (m Model) renderHeader() string {
	name := m.browser.Service()
	if info, ok := m.browser.Info(); ok && info.Name != "" {
		name = info.Name
	}

	left := styles.HeaderStyle.Render("tubular") + " " + styles.DimBadgeStyle.Render(name)
	if m.Title != "" {
		left += " " + styles.TitleStyle.Render(styles.Truncate(m.Title, m.Width/2))
	}

	right := ""
	if n := m.videos.Count(); n > 0 {
		right = styles.DimStyle.Render(fmt.Sprintf("%d videos", n))
		if m.videos.CanFetchMore() {
			right += styles.DimStyle.Render(" +")
		}
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.videos.Status() == domain.StatusLoading:
		left = m.Spinner.View() + " " + styles.DimStyle.Render("Loading...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(styles.Truncate(m.StatusMsg, m.Width-10))
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keys"))
	b.WriteString("\n")

	for i, group := range HelpGroups() {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%-8s", h.Key)))
			b.WriteString(styles.HelpDescStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	return styles.ModalStyle.Render(b.String())
}
