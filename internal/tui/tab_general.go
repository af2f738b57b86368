package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenrole/internal/config"
)

// GeneralTab is the sub-model for the General settings tab.
type GeneralTab struct {
	cfg *config.Config

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values, converted on submit.
	fMultiScreen    bool
	fLogLevel       string
	fBlackoutHotkey string
	fBlackoutLabel  string
	fRelayoutHotkey string
	fReconcile      string
	fWatchConfig    bool
}

// NewGeneralTab creates a GeneralTab over the shared config.
func NewGeneralTab(cfg *config.Config) GeneralTab {
	return GeneralTab{cfg: cfg}
}

// Update implements tea.Model.
func (g GeneralTab) Update(msg tea.Msg) (GeneralTab, tea.Cmd) {
	if g.editing {
		return g.updateEditing(msg)
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" {
			g.startEditing()
			return g, g.form.Init()
		}
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}
	return g, nil
}

func (g GeneralTab) updateEditing(msg tea.Msg) (GeneralTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			g.editing = false
			g.form = nil
			return g, nil
		}
	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}

	form, cmd := g.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		g.form = f
	}

	if g.form.State == huh.StateCompleted {
		g.applyForm()
		g.editing = false
		g.form = nil
		return g, nil
	}
	return g, cmd
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a duration (e.g. 5s, 1m)")
	}
	if d < 0 {
		return fmt.Errorf("must be >= 0")
	}
	return nil
}

func (g *GeneralTab) startEditing() {
	cfg := g.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	g.fMultiScreen = cfg.MultiScreen
	g.fLogLevel = cfg.LogLevel
	g.fBlackoutHotkey = cfg.Blackout.Hotkey
	g.fBlackoutLabel = cfg.Blackout.Label
	g.fRelayoutHotkey = cfg.RelayoutHotkey
	g.fReconcile = cfg.Surfaces.ReconcileInterval.String()
	g.fWatchConfig = cfg.WatchConfig

	w := g.width - 4
	if w < 40 {
		w = 40
	}

	g.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("multi_screen").
				Title("Multi-screen").
				Description("Spread previous pages across paged displays").
				Value(&g.fMultiScreen),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&g.fLogLevel),

			huh.NewConfirm().
				Key("watch_config").
				Title("Watch Config").
				Description("Reload the daemon when this file changes").
				Value(&g.fWatchConfig),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("blackout_hotkey").
				Title("Blackout Hotkey").
				Description("X11 keybinding that toggles the blackout").
				Value(&g.fBlackoutHotkey),

			huh.NewInput().
				Key("relayout_hotkey").
				Title("Relayout Hotkey").
				Description("Leave empty to disable").
				Value(&g.fRelayoutHotkey),

			huh.NewInput().
				Key("blackout_label").
				Title("Overlay Label").
				Value(&g.fBlackoutLabel),

			huh.NewInput().
				Key("reconcile_interval").
				Title("Reconcile Interval").
				Description("How often surface selectors are re-resolved; 0s disables").
				Validate(validateDuration).
				Value(&g.fReconcile),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	g.editing = true
}

func (g *GeneralTab) applyForm() {
	if g.cfg == nil {
		return
	}
	g.cfg.MultiScreen = g.fMultiScreen
	if g.fLogLevel != "" {
		g.cfg.LogLevel = g.fLogLevel
	}
	g.cfg.WatchConfig = g.fWatchConfig
	g.cfg.Blackout.Hotkey = strings.TrimSpace(g.fBlackoutHotkey)
	g.cfg.Blackout.Label = g.fBlackoutLabel
	g.cfg.RelayoutHotkey = strings.TrimSpace(g.fRelayoutHotkey)
	if d, err := time.ParseDuration(strings.TrimSpace(g.fReconcile)); err == nil && d >= 0 {
		g.cfg.Surfaces.ReconcileInterval = d
	}
}

// View implements tea.Model.
func (g GeneralTab) View() string {
	if g.editing && g.form != nil {
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Editing General Settings") +
			dimStyle.Render("  (esc to cancel)")
		return lipgloss.NewStyle().
			Width(g.width).
			Height(g.height).
			Padding(1, 2).
			Render(header + "\n\n" + g.form.View())
	}

	cfg := g.cfg
	if cfg == nil {
		return lipgloss.NewStyle().
			Width(g.width).
			Height(g.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No config loaded")
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(22).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	dbus := "disabled"
	if cfg.DBus.Enabled {
		dbus = cfg.DBus.Name
	}

	lines := []string{
		"",
		row("Multi-screen", onOff(cfg.MultiScreen)),
		row("Log Level", cfg.LogLevel),
		row("Watch Config", onOff(cfg.WatchConfig)),
		"",
		row("Blackout Hotkey", displayOrDefault(cfg.Blackout.Hotkey, "(none)")),
		row("Relayout Hotkey", displayOrDefault(cfg.RelayoutHotkey, "(none)")),
		row("Overlay Label", cfg.Blackout.Label),
		"",
		row("Screen Rules", fmt.Sprintf("%d", len(cfg.Screens.Rules))),
		row("Reconcile Interval", cfg.Surfaces.ReconcileInterval.String()),
		row("D-Bus", dbus),
		"",
		dimStyle.Render("  Press 'e' to edit settings"),
	}

	return lipgloss.NewStyle().
		Width(g.width).
		Height(g.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
