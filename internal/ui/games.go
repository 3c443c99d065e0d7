package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/steamview/internal/state"
)

const gameRowHeight = boxArtRows

// handleGamesKey moves through the game list and opens achievements.
func (m Model) handleGamesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.session.Games)
	if key.Matches(msg, m.keys.Back) {
		m.focusInput()
		return m, nil
	}
	if count == 0 {
		return m, nil
	}

	page := m.visibleGameRows()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selected--
	case key.Matches(msg, m.keys.Down):
		m.selected++
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = count - 1
	case key.Matches(msg, m.keys.PageUp):
		m.selected -= page
	case key.Matches(msg, m.keys.PageDown):
		m.selected += page
	case key.Matches(msg, m.keys.Open):
		return m.openAchievements()
	}
	m.clampSelection()
	return m, nil
}

func (m Model) openAchievements() (tea.Model, tea.Cmd) {
	if err := m.session.SelectGame(m.selected); err != nil {
		m.logger.Debug("select game failed", "error", err)
		return m, nil
	}
	m.currentView = ViewAchievements
	m.achievementsViewport.GotoTop()
	m.refreshAchievements()
	return m, nil
}

// clampSelection keeps the selected row inside the list and on screen.
func (m *Model) clampSelection() {
	count := len(m.session.Games)
	if count == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	m.selected = min(max(m.selected, 0), count-1)
	page := m.visibleGameRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+page {
		m.offset = m.selected - page + 1
	}
	m.offset = min(max(m.offset, 0), max(count-page, 0))
}

func (m Model) visibleGameRows() int {
	return max(m.contentHeight()/gameRowHeight, 1)
}

// renderGames renders the visible slice of the game list, each row with its
// box art thumbnail.
func (m Model) renderGames() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	games := m.session.Games

	if len(games) == 0 {
		return fillHeight(styles.MutedText.Render(m.session.Status), height)
	}

	textWidth := max(m.width-boxArtCols-3, 10)
	end := min(m.offset+m.visibleGameRows(), len(games))
	lines := make([]string, 0, height)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderGameRow(games[i], i == m.selected, textWidth)...)
	}
	return fillHeight(strings.Join(lines, "\n"), height)
}

func (m Model) renderGameRow(row state.GameRow, selected bool, width int) []string {
	styles := m.theme.Styles()
	thumb := renderThumbnail(row.Bitmap, boxArtCols, boxArtRows)

	marker := "  "
	name := styles.Title.Render(truncate(row.Game.Name, width))
	if selected {
		marker = styles.AccentText.Render("▌ ")
		name = styles.Selected.Render(truncate(row.Game.Name, width))
	}

	details := []string{
		name,
		styles.MutedText.Render(truncate(formatPlaytime(m.printer, row.Game.PlaytimeForever)+" played", width)),
		styles.FaintText.Render(truncate(m.recentLine(row), width)),
	}

	lines := make([]string, boxArtRows)
	for i := range lines {
		lines[i] = marker + thumb[i] + " " + details[i]
	}
	return lines
}

func (m Model) recentLine(row state.GameRow) string {
	if row.Game.PlaytimeTwoWeeks > 0 {
		return fmt.Sprintf("AppID %d · %s in the last two weeks",
			row.Game.AppID, formatPlaytime(m.printer, row.Game.PlaytimeTwoWeeks))
	}
	return fmt.Sprintf("AppID %d", row.Game.AppID)
}

// fillHeight pads or cuts content to exactly height lines.
func fillHeight(content string, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
