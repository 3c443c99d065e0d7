package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/message"

	"github.com/five82/steamview/internal/dispatch"
	"github.com/five82/steamview/internal/logging"
	"github.com/five82/steamview/internal/logtail"
	"github.com/five82/steamview/internal/prefs"
	"github.com/five82/steamview/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewGames View = iota
	ViewAchievements
	ViewLogs
)

type focusArea int

const (
	focusInput focusArea = iota
	focusList
)

const (
	defaultPollTick    = 100 * time.Millisecond
	logRefreshInterval = time.Second
	logTailLines       = 500
	chromeHeight       = 4 // header, input, status, footer
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Queue     *dispatch.Queue
	Launcher  state.Launcher
	BoxArtURL func(appID int) string
	Logger    *slog.Logger
	PollTick  time.Duration
	Language  string
	LogPath   string
	ThemeName string
	PrefsPath string
	SteamID   string
}

// Model is the root application state for Bubble Tea. It is the only owner of
// the session: queued envelopes are applied on each tick.
type Model struct {
	ctx       context.Context
	queue     *dispatch.Queue
	session   *state.Session
	logger    *slog.Logger
	printer   *message.Printer
	pollTick  time.Duration
	logPath   string
	prefsPath string
	prefs     prefs.Prefs

	theme   Theme
	keys    keyMap
	help    help.Model
	input   textinput.Model
	spinner spinner.Model

	currentView View
	returnView  View
	focus       focusArea
	width       int
	height      int
	ready       bool
	showHelp    bool

	selected int
	offset   int

	achievementsViewport viewport.Model

	logViewport    viewport.Model
	logEntries     []logtail.Entry
	logErr         error
	lastLogRefresh time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = defaultPollTick
	}
	queue := opts.Queue
	if queue == nil {
		queue = dispatch.NewQueue()
	}
	boxArtURL := opts.BoxArtURL
	if boxArtURL == nil {
		boxArtURL = func(int) string { return "" }
	}
	logger := logging.OrDefault(opts.Logger).With("component", "ui")

	userPrefs := prefs.Load(opts.PrefsPath)
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = userPrefs.Theme
	}

	input := textinput.New()
	input.Placeholder = "SteamID64, e.g. 76561197960287930"
	input.Prompt = "SteamID › "
	input.CharLimit = 32
	input.SetValue(firstNonEmpty(opts.SteamID, userPrefs.LastSteamID))
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		ctx:         ctx,
		queue:       queue,
		session:     state.NewSession(opts.Launcher, boxArtURL, opts.Logger),
		logger:      logger,
		printer:     newPrinter(opts.Language),
		pollTick:    pollTick,
		logPath:     opts.LogPath,
		prefsPath:   opts.PrefsPath,
		prefs:       userPrefs,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		input:       input,
		spinner:     spin,
		currentView: ViewGames,
		focus:       focusInput,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		tickCmd(m.pollTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.resizeViewports()
		m.refreshAchievements()
		m.refreshLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case logsMsg:
		m.logEntries = msg.entries
		m.logErr = msg.err
		m.refreshLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// handleTick drains the dispatch queue into the session.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}

	if envs := m.queue.Drain(); len(envs) > 0 {
		if m.session.ApplyAll(envs) {
			m.clampSelection()
			m.refreshAchievements()
		}
	}

	if m.currentView == ViewLogs && time.Since(m.lastLogRefresh) >= logRefreshInterval {
		m.lastLogRefresh = time.Now()
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.currentView == ViewGames && m.focus == focusInput {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Logs) && m.currentView != ViewLogs:
		m.returnView = m.currentView
		m.currentView = ViewLogs
		m.lastLogRefresh = time.Now()
		return m, readLogsCmd(m.logPath)
	case key.Matches(msg, m.keys.Search):
		m.currentView = ViewGames
		m.session.CloseAchievements()
		m.focusInput()
		return m, textinput.Blink
	}

	switch m.currentView {
	case ViewGames:
		return m.handleGamesKey(msg)
	case ViewAchievements:
		return m.handleAchievementsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.submitSearch()
		return m, nil
	case key.Matches(msg, m.keys.Blur):
		if len(m.session.Games) > 0 || m.session.Busy() {
			m.focusList()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitSearch validates the typed SteamID before starting any work.
func (m *Model) submitSearch() {
	if m.session.Busy() {
		return
	}
	if err := m.session.StartSearch(m.input.Value()); err != nil {
		m.logger.Debug("search rejected", "error", err)
		return
	}
	m.selected, m.offset = 0, 0
	m.focusList()
	m.input.SetValue(m.session.SteamID)
	m.savePrefs(func(p *prefs.Prefs) { p.LastSteamID = m.session.SteamID })
}

func (m *Model) focusInput() {
	m.focus = focusInput
	m.input.Focus()
}

func (m *Model) focusList() {
	m.focus = focusList
	m.input.Blur()
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.savePrefs(func(p *prefs.Prefs) { p.Theme = m.theme.Name })
	m.refreshAchievements()
	m.refreshLogViewport()
}

func (m *Model) savePrefs(change func(*prefs.Prefs)) {
	change(&m.prefs)
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

func (m *Model) resizeViewports() {
	height := max(m.contentHeight()-1, 1)
	if m.achievementsViewport.Width == 0 {
		m.achievementsViewport = viewport.New(m.width, height)
	}
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(m.width, height)
	}
	m.achievementsViewport.Width = m.width
	m.achievementsViewport.Height = height
	m.logViewport.Width = m.width
	m.logViewport.Height = height
}

func (m Model) contentHeight() int {
	return max(m.height-chromeHeight, 1)
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewAchievements:
		return m.renderAchievements()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderGames()
	}
}

// Messages

type tickMsg time.Time

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		entries, err := logtail.Tail(path, logTailLines)
		return logsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
