package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/steamview/internal/state"
)

func (m Model) handleAchievementsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.session.CloseAchievements()
		m.currentView = ViewGames
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.achievementsViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.achievementsViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.achievementsViewport, cmd = m.achievementsViewport.Update(msg)
	return m, cmd
}

// refreshAchievements re-renders the achievements viewport content.
func (m *Model) refreshAchievements() {
	if m.achievementsViewport.Width == 0 {
		return
	}
	m.achievementsViewport.SetContent(m.achievementsContent())
}

func (m Model) achievementsContent() string {
	styles := m.theme.Styles()
	rows := m.session.Rows
	if len(rows) == 0 {
		return styles.MutedText.Render(m.session.Status)
	}

	unlocked := 0
	for _, r := range rows {
		if r.Achievement.Achieved {
			unlocked++
		}
	}
	width := max(m.width-iconCols-3, 10)

	var b strings.Builder
	b.WriteString(styles.Title.Render(m.session.GameName))
	b.WriteString("  ")
	b.WriteString(styles.MutedText.Render(m.printer.Sprintf("%d of %d unlocked", unlocked, len(rows))))
	b.WriteString("\n")
	for _, row := range rows {
		for _, line := range m.renderAchievementRow(row, width) {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	return b.String()
}

func (m Model) renderAchievementRow(row state.AchievementRow, width int) []string {
	styles := m.theme.Styles()
	a := row.Achievement
	icon := renderThumbnail(row.Bitmap, iconCols, iconRows)

	unlock := styles.FaintText.Render(formatUnlock(a))
	if a.Achieved {
		unlock = styles.SuccessText.Render(formatUnlock(a))
	}
	title := fmt.Sprintf("%s  %s  %s",
		styles.Title.Render(truncate(a.Title(), width/2)),
		styles.AccentText.Render(formatPercent(row.Percent)),
		unlock)

	description := a.Description
	if description == "" {
		description = "No description."
	}
	return []string{
		icon[0] + " " + title,
		icon[1] + " " + styles.MutedText.Render(truncate(description, width)),
	}
}

func (m Model) renderAchievements() string {
	return fillHeight(m.achievementsViewport.View(), m.contentHeight())
}
