package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/steamview/internal/state"
)

// renderHeader renders the top bar: logo, account and counts.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	surface := lipgloss.Color(m.theme.Surface)
	sep := lipgloss.NewStyle().Background(surface).Render("  ")

	parts := []string{styles.Logo.Render("steamview")}
	if m.session.SteamID != "" {
		parts = append(parts, styles.MutedText.Background(surface).Render(m.session.SteamID))
	}
	if m.session.Search == state.GamesListed {
		parts = append(parts, styles.Text.Background(surface).Render(
			m.printer.Sprintf("%d games", len(m.session.Games))))
	}
	switch m.currentView {
	case ViewAchievements:
		parts = append(parts, styles.AccentText.Background(surface).Render(m.session.GameName))
	case ViewLogs:
		parts = append(parts, styles.AccentText.Background(surface).Render("log"))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderInput() string {
	view := m.input.View()
	if m.session.Busy() {
		view += " " + m.spinner.View()
	}
	return view
}

// renderStatus shows the current error, or progress, or a hint.
func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	switch {
	case m.session.Err != "":
		return styles.DangerText.Render(truncate(m.session.Err, m.width))
	case m.session.Busy() || m.session.Achievements == state.LoadingAchievements:
		return m.spinner.View() + " " + styles.WarningText.Render(m.session.Status)
	case m.session.Status != "":
		return styles.MutedText.Render(m.session.Status)
	case m.focus == focusInput && m.currentView == ViewGames:
		return styles.FaintText.Render("Enter a SteamID64 and press enter")
	default:
		return styles.FaintText.Render(m.position())
	}
}

func (m Model) position() string {
	switch m.currentView {
	case ViewGames:
		if n := len(m.session.Games); n > 0 {
			return fmt.Sprintf("%d/%d", m.selected+1, n)
		}
	case ViewAchievements:
		if len(m.session.Rows) > 0 {
			return fmt.Sprintf("%3.f%%", m.achievementsViewport.ScrollPercent()*100)
		}
	case ViewLogs:
		return fmt.Sprintf("%d entries", len(m.logEntries))
	}
	return ""
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}
