package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/1broseidon/screenrole/internal/display"
)

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("want on or off, got %q", s)
	}
}

// parseWindowID accepts decimal or 0x-prefixed hex X11 window IDs.
func parseWindowID(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(v), nil
}

// parseSurfaceArgs reads KIND [INDEX] WINDOW.
func parseSurfaceArgs(args []string) (kind string, index int, window uint32, err error) {
	k, err := display.ParseSurfaceKind(args[0])
	if err != nil {
		return "", 0, 0, err
	}
	rest := args[1:]
	if k == display.SurfacePrevious {
		if len(rest) != 2 {
			return "", 0, 0, fmt.Errorf("previous needs INDEX and WINDOW")
		}
		index, err = strconv.Atoi(rest[0])
		if err != nil || index < 0 {
			return "", 0, 0, fmt.Errorf("invalid index %q", rest[0])
		}
		rest = rest[1:]
	} else if len(rest) != 1 {
		return "", 0, 0, fmt.Errorf("%s needs exactly one WINDOW", k)
	}
	window, err = parseWindowID(rest[0])
	if err != nil {
		return "", 0, 0, err
	}
	return string(k), index, window, nil
}

func newBlackoutCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blackout",
		Short: "Cover every display with a black overlay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.client().Blackout()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Enter the blackout, or leave it when active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blacked, err := g.client().ToggleBlackout()
			if err != nil {
				return err
			}
			if blacked {
				fmt.Fprintln(cmd.OutOrStdout(), "blackout: on")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "blackout: off")
			}
			return nil
		},
	})
	return cmd
}

func newUnblackoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "unblackout",
		Short: "Remove the blackout overlays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.client().Unblackout()
		},
	}
}

func newDesktopCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "desktop on|off",
		Short:     "Show or hide the desktop surface on the primary display",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return g.client().SetDesktopMode(on)
		},
	}
}

func newMainModeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "main-mode",
		Short: "Leave desktop mode and return to the presentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.client().MainMode()
		},
	}
}

func newMultiScreenCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:       "multiscreen on|off",
		Short:     "Enable or disable spreading previous pages across displays",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return g.client().SetMultiScreen(on)
		},
	}
}

func newSurfaceCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surface",
		Short: "Manage surface bindings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set KIND [INDEX] WINDOW",
		Short: "Pin a window to a surface slot (window 0 unpins)",
		Long: `Pin an X11 window to a surface slot. KIND is control, display, desktop
or previous; previous also takes a 0-based INDEX. WINDOW is decimal or
0x-prefixed hex. A pinned slot is no longer matched by its config selector
until it is unpinned with window 0.`,
		Example: `  screenrole surface set display 0x3a00007
  screenrole surface set previous 1 0x3c00004
  screenrole surface set control 0`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, index, window, err := parseSurfaceArgs(args)
			if err != nil {
				return err
			}
			return g.client().SetSurface(kind, index, window)
		},
	})
	return cmd
}

func newRelayoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "relayout",
		Short: "Re-run the layout pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.client().Relayout()
		},
	}
}

func newReloadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to reload its config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.client().Reload()
		},
	}
}
