package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/screenrole/internal/display"
	"github.com/1broseidon/screenrole/internal/ipc"
	"github.com/1broseidon/screenrole/internal/platform"
)

// styles are only applied when stdout is a terminal.
type styles struct {
	label lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		plain := lipgloss.NewStyle()
		return styles{label: plain, good: plain, warn: plain, bad: plain}
	}
	return styles{
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
		good:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		bad:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatusCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := g.client().Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, st)
			}
			printStatus(out, st, newStyles(out), time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func yesNo(s styles, b bool) string {
	if b {
		return s.good.Render("yes")
	}
	return "no"
}

func printStatus(w io.Writer, st *ipc.StatusData, s styles, now time.Time) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", s.label.Render(fmt.Sprintf("%-16s", label+":")), value)
	}

	started := now.Add(-time.Duration(st.UptimeSeconds) * time.Second)
	row("pid", fmt.Sprintf("%d", st.PID))
	row("uptime", fmt.Sprintf("%s (started %s)", time.Duration(st.UptimeSeconds)*time.Second, humanize.RelTime(started, now, "ago", "from now")))
	if st.ConfigPath != "" {
		row("config", st.ConfigPath)
	}
	row("screens", fmt.Sprintf("%d", st.Screens))
	row("previous pages", fmt.Sprintf("%d", st.PreviousPages))
	row("control", yesNo(s, st.HasControl))
	row("presentation", yesNo(s, st.HasPresentation))
	row("multi-screen", yesNo(s, st.MultiScreen))
	row("desktop shown", yesNo(s, st.ShowingDesktop))
	if st.Blacked {
		row("blackout", s.warn.Render("active"))
	} else {
		row("blackout", "off")
	}

	surfaces := []string{}
	if st.Surfaces.Control {
		surfaces = append(surfaces, "control")
	}
	if st.Surfaces.Display {
		surfaces = append(surfaces, "display")
	}
	if st.Surfaces.Desktop {
		surfaces = append(surfaces, "desktop")
	}
	if st.Surfaces.Previous > 0 {
		surfaces = append(surfaces, fmt.Sprintf("previous x%d", st.Surfaces.Previous))
	}
	if len(surfaces) == 0 {
		surfaces = append(surfaces, "none")
	}
	row("surfaces", strings.Join(surfaces, ", "))

	if !st.LastLayout.IsZero() {
		row("last layout", fmt.Sprintf("%s (pass %s)", humanize.RelTime(st.LastLayout, now, "ago", "from now"), st.Pass))
	}
	if st.LastError != "" {
		row("last error", s.bad.Render(st.LastError))
	}
}

func newDisplaysCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "displays",
		Short: "List displays and their resolved roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := g.client().Displays()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, data)
			}
			printDisplays(out, data.Displays, newStyles(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func rect(r platform.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func printDisplays(w io.Writer, displays []display.DisplayStatus, s styles) {
	if len(displays) == 0 {
		fmt.Fprintln(w, "no displays")
		return
	}
	fmt.Fprintln(w, s.label.Render(fmt.Sprintf("%-14s %-14s %-22s %s", "DISPLAY", "ROLE", "BOUNDS", "USABLE")))
	for _, d := range displays {
		fmt.Fprintf(w, "%-14s %-14s %-22s %s\n", d.Name, d.Role, rect(d.Bounds), rect(d.Usable))
	}
}
