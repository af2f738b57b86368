package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/screenrole/internal/config"
	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/platform"
)

// DisplaysTab shows the live displays, their daemon-assigned roles and the
// roles the unsaved rule table would assign.
type DisplaysTab struct {
	cfg      *config.Config
	client   DaemonClient
	displays []display.DisplayStatus
	rows     []previewRow
	err      error

	table  table.Model
	width  int
	height int
}

// NewDisplaysTab creates the displays tab.
func NewDisplaysTab(cfg *config.Config, client DaemonClient) DisplaysTab {
	t := table.New(
		table.WithColumns(displayColumns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))
	t.SetStyles(styles)

	return DisplaysTab{cfg: cfg, client: client, table: t}
}

func displayColumns(width int) []table.Column {
	geo := (width - 12 - 12 - 12 - 8) / 2
	if geo < 12 {
		geo = 12
	}
	return []table.Column{
		{Title: "Display", Width: 12},
		{Title: "Role", Width: 12},
		{Title: "Pending", Width: 12},
		{Title: "Bounds", Width: geo},
		{Title: "Usable", Width: geo},
	}
}

func formatRect(r platform.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// SetDisplays replaces the live display list and recomputes the preview.
func (d *DisplaysTab) SetDisplays(ds []display.DisplayStatus) {
	d.displays = ds
	d.Refresh()
}

// Refresh recomputes the pending roles from the current rule table.
func (d *DisplaysTab) Refresh() {
	d.rows, d.err = previewRoles(d.cfg, d.displays)
	rows := make([]table.Row, 0, len(d.rows))
	for _, r := range d.rows {
		pending := r.Pending
		if r.Changed() {
			pending += " *"
		}
		rows = append(rows, table.Row{r.Name, r.Live, pending, formatRect(r.Bounds), formatRect(r.Usable)})
	}
	d.table.SetRows(rows)
}

func (d DisplaysTab) action(what string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if d.client == nil {
			return actionMsg{what: what, err: fmt.Errorf("daemon not connected")}
		}
		return actionMsg{what: what, err: fn()}
	}
}

// Update handles messages for the displays tab.
func (d DisplaysTab) Update(msg tea.Msg) (DisplaysTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.table.SetColumns(displayColumns(d.width - 4))
		d.table.SetHeight(max(3, d.height/2-2))
		return d, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return d, pollDaemon(d.client)
		case "b":
			return d, d.action("blackout toggled", func() error {
				_, err := d.client.ToggleBlackout()
				return err
			})
		case "l":
			return d, d.action("relayout done", func() error { return d.client.Relayout() })
		}
	}

	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

// View implements tea.Model.
func (d DisplaysTab) View() string {
	if d.width == 0 || d.height == 0 {
		return ""
	}
	if len(d.displays) == 0 {
		return lipgloss.NewStyle().
			Width(d.width).
			Height(d.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No displays reported (is the daemon running?)\n\nr: refresh")
	}

	var b strings.Builder
	b.WriteString(d.table.View())
	b.WriteString("\n")
	if d.err != nil {
		b.WriteString(errStyle.Render("rules: " + d.err.Error()))
		b.WriteString("\n")
	}

	sketchH := d.height - lipgloss.Height(b.String()) - 2
	if sketchH >= 3 {
		sketch := renderArrangement(d.rows, d.width-4, sketchH)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render(strings.Join(sketch, "\n")))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("r: refresh  b: toggle blackout  l: relayout  * role changes on save"))

	return lipgloss.NewStyle().
		Width(d.width).
		Height(d.height).
		Padding(0, 2).
		Render(b.String())
}
