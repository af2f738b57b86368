package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/ipc"
)

const refreshInterval = 2 * time.Second

type daemonState struct {
	connected bool
	status    *ipc.StatusData
	err       error
}

// daemonMsg carries the result of a daemon poll.
type daemonMsg struct {
	status   *ipc.StatusData
	displays []display.DisplayStatus
	err      error
}

type refreshTickMsg struct{}

// actionMsg reports the outcome of a daemon action started from a tab.
type actionMsg struct {
	what string
	err  error
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	loadErr    error
	cfg        *config.Config
	client     DaemonClient

	activeTab Tab

	generalTab  GeneralTab
	rulesTab    RulesTab
	displaysTab DisplaysTab

	originalConfig *config.Config
	saveOverlay    SaveOverlay

	daemon daemonState
	flash  string

	width  int
	height int
}

func newModel(configPath string, client DaemonClient) model {
	m := model{
		configPath: configPath,
		client:     client,
		activeTab:  TabGeneral,
	}

	res, err := config.LoadFromPath(configPath)
	if err != nil {
		// Keep going on defaults so the file can be fixed from here.
		m.loadErr = err
		m.cfg = config.DefaultConfig()
	} else {
		m.cfg = res.Config
	}
	m.originalConfig = m.cfg.Clone()

	m.generalTab = NewGeneralTab(m.cfg)
	m.rulesTab = NewRulesTab(m.cfg)
	m.displaysTab = NewDisplaysTab(m.cfg, client)

	if m.loadErr != nil {
		m.flash = errStyle.Render("config: " + m.loadErr.Error())
	}
	return m
}

func pollDaemon(client DaemonClient) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return daemonMsg{err: ipc.ErrDaemonNotRunning}
		}
		st, err := client.Status()
		if err != nil {
			return daemonMsg{err: err}
		}
		ds, err := client.Displays()
		if err != nil {
			return daemonMsg{err: err}
		}
		return daemonMsg{status: st, displays: ds.Displays}
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// capturing reports whether the active tab consumes every key.
func (m model) capturing() bool {
	return (m.activeTab == TabGeneral && m.generalTab.editing) ||
		(m.activeTab == TabRules && m.rulesTab.adding)
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return pollDaemon(m.client)
}

func (m model) resize(msg tea.WindowSizeMsg) model {
	m.width = msg.Width
	m.height = msg.Height
	sub := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.generalTab, _ = m.generalTab.Update(sub)
	m.rulesTab, _ = m.rulesTab.Update(sub)
	m.displaysTab, _ = m.displaysTab.Update(sub)
	return m
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case daemonMsg:
		m.daemon = daemonState{connected: msg.err == nil, status: msg.status, err: msg.err}
		m.displaysTab.SetDisplays(msg.displays)
		m.rulesTab.SetDisplays(msg.displays)
		return m, scheduleRefresh()

	case refreshTickMsg:
		return m, pollDaemon(m.client)

	case actionMsg:
		if msg.err != nil {
			m.flash = errStyle.Render(fmt.Sprintf("%s: %v", msg.what, msg.err))
		} else {
			m.flash = okStyle.Render(msg.what)
		}
		return m, pollDaemon(m.client)
	}

	if m.saveOverlay.Active() {
		if km, ok := msg.(tea.KeyMsg); ok {
			if km.String() == "ctrl+c" {
				return m, tea.Quit
			}
			var saved bool
			m.saveOverlay, saved = m.saveOverlay.Update(km, m.cfg, m.configPath, m.client, m.daemon.connected)
			if saved {
				m.originalConfig = m.cfg.Clone()
				m.loadErr = nil
				m.flash = ""
			}
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		m.saveOverlay.Show(m.originalConfig, m.cfg)
		return m, nil
	}

	if m.capturing() {
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateActive(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil
		case "1":
			m.activeTab = TabGeneral
			return m, nil
		case "2":
			m.activeTab = TabRules
			return m, nil
		case "3":
			m.activeTab = TabDisplays
			m.displaysTab.Refresh()
			return m, nil
		}
	}

	return m.updateActive(msg)
}

func (m model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case TabGeneral:
		m.generalTab, cmd = m.generalTab.Update(msg)
	case TabRules:
		m.rulesTab, cmd = m.rulesTab.Update(msg)
		// Rule edits change the pending column.
		m.displaysTab.Refresh()
	case TabDisplays:
		m.displaysTab, cmd = m.displaysTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.daemon, m.flash, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabGeneral:
			content = m.generalTab.View()
		case TabRules:
			content = m.rulesTab.View()
		case TabDisplays:
			content = m.displaysTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
