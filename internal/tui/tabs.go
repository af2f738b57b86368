package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Tab identifies a TUI tab.
type Tab int

const (
	TabGeneral Tab = iota
	TabRules
	TabDisplays
	tabCount // sentinel for iteration
)

func (t Tab) String() string {
	switch t {
	case TabGeneral:
		return "General"
	case TabRules:
		return "Rules"
	case TabDisplays:
		return "Displays"
	default:
		return "?"
	}
}

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

func renderTabBar(active Tab, width int) string {
	var tabs []string
	for i := Tab(0); i < tabCount; i++ {
		label := fmt.Sprintf("%d:%s", int(i)+1, i)
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

// statusLine summarizes the daemon state for the status bar.
func statusLine(d daemonState, now time.Time) string {
	if !d.connected || d.status == nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		return dot + " daemon not running"
	}

	st := d.status
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	parts := []string{
		dot + " daemon connected",
		fmt.Sprintf("screens:%d", st.Screens),
		fmt.Sprintf("previous:%d", st.PreviousPages),
	}
	if st.UptimeSeconds > 0 {
		started := now.Add(-time.Duration(st.UptimeSeconds) * time.Second)
		parts = append(parts, "started "+humanize.RelTime(started, now, "ago", "from now"))
	}
	if !st.LastLayout.IsZero() {
		parts = append(parts, "last layout "+humanize.RelTime(st.LastLayout, now, "ago", "from now"))
	}
	if st.Blacked {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("blacked out"))
	}
	if st.LastError != "" {
		parts = append(parts, errStyle.Render("error"))
	}
	return strings.Join(parts, "  ")
}

func renderStatusBar(d daemonState, flash string, width int) string {
	status := statusLine(d, time.Now())
	if flash != "" {
		status += "  " + flash
	}
	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

func renderHelpBar(width int) string {
	help := "tab/shift-tab: switch tabs  1-3: jump to tab  ctrl-s: save  q/ctrl-c: quit"
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
