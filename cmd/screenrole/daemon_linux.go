//go:build linux

package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/screenrole/internal/daemon"
)

func newDaemonCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the screenrole daemon in the foreground",
		Long: `Run the daemon in the current X session. It resolves display roles,
lays out the managed surfaces, and serves the control socket, the session
bus interface and the configured hotkeys. SIGHUP reloads the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := daemon.Options{
				ConfigPath: g.configPath,
				SocketPath: g.socketPath,
				Logger:     g.logger,
			}
			// An explicit --log-level pins the level across reloads.
			if !cmd.Flags().Changed("log-level") {
				opts.Level = g.level
			}
			d, err := daemon.New(opts)
			if err != nil {
				return err
			}
			return d.Run(cmd.Context())
		},
	}
}
