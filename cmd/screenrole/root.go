package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1broseidon/screenrole/internal/daemon"
	"github.com/1broseidon/screenrole/internal/ipc"
)

var (
	version = "dev"
	commit  = "unknown"
)

// globals holds the persistent flags and the logger built from them.
type globals struct {
	configPath string
	logLevel   string
	socketPath string

	level  *slog.LevelVar
	logger *slog.Logger
}

// client returns an IPC client for the running daemon.
func (g *globals) client() *ipc.Client {
	if g.socketPath != "" {
		return ipc.NewClientAt(g.socketPath)
	}
	return ipc.NewClient()
}

func newRootCmd() *cobra.Command {
	g := &globals{level: new(slog.LevelVar)}

	root := &cobra.Command{
		Use:   "screenrole",
		Short: "Assign presentation roles to displays and keep surfaces laid out",
		Long: `screenrole watches the attached displays, assigns each one a role
(control console, presentation, previous page or ignored) from a rule table,
and keeps the managed windows placed accordingly. It can also black out
every display on demand.

Run 'screenrole daemon' inside the X session; the other commands talk to the
running daemon over its control socket.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.logLevel != "" {
				level, err := daemon.ParseLevel(g.logLevel)
				if err != nil {
					return err
				}
				g.level.Set(level)
			}
			g.logger = newLogger(os.Stderr, g.level)
			slog.SetDefault(g.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file path (default: $XDG_CONFIG_HOME/screenrole/config.yaml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log_level)")
	root.PersistentFlags().StringVar(&g.socketPath, "socket", "", "daemon control socket (default: $SCREENROLE_SOCKET or $XDG_RUNTIME_DIR/screenrole.sock)")

	root.AddCommand(newDaemonCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newDisplaysCmd(g))
	root.AddCommand(newBlackoutCmd(g))
	root.AddCommand(newUnblackoutCmd(g))
	root.AddCommand(newDesktopCmd(g))
	root.AddCommand(newMainModeCmd(g))
	root.AddCommand(newMultiScreenCmd(g))
	root.AddCommand(newSurfaceCmd(g))
	root.AddCommand(newRelayoutCmd(g))
	root.AddCommand(newReloadCmd(g))
	root.AddCommand(newConfigCmd(g))
	root.AddCommand(newTUICmd(g))
	root.AddCommand(newPaletteCmd(g))
	root.AddCommand(newMCPCmd(g))

	return root
}

// Execute runs the CLI.
func Execute() error {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
