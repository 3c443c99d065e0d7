package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Logs):
		m.currentView = m.returnView
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, readLogsCmd(m.logPath)
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}

// refreshLogViewport renders the tail of the log file, keeping the view at
// the bottom when it already was.
func (m *Model) refreshLogViewport() {
	if m.logViewport.Width == 0 {
		return
	}
	follow := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	m.logViewport.SetContent(m.logContent())
	if follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) logContent() string {
	styles := m.theme.Styles()
	if m.logErr != nil {
		return styles.DangerText.Render("Cannot read log: " + m.logErr.Error())
	}
	if m.logPath == "" {
		return styles.MutedText.Render("Logging to a file is disabled.")
	}
	if len(m.logEntries) == 0 {
		return styles.MutedText.Render("No log entries yet in " + m.logPath)
	}

	lines := make([]string, 0, len(m.logEntries))
	for _, e := range m.logEntries {
		if e.Level == "" {
			lines = append(lines, styles.MutedText.Render(truncate(e.Raw, m.width)))
			continue
		}
		summary := truncate(e.Summary(), m.width)
		lines = append(lines, styles.LevelStyle(e.Level).Render(summary))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogs() string {
	return fillHeight(m.logViewport.View(), m.contentHeight())
}
