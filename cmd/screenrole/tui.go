package main

import (
	"github.com/spf13/cobra"

	"github.com/1broseidon/screenrole/internal/tui"
)

func newTUICmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Edit settings and rules interactively",
		Long: `Open the interactive editor. It works offline when the daemon is not
running; with the daemon up, the Displays tab shows live roles next to the
roles the edited rule table would assign.

Keys: tab/1-3 switch tabs, ctrl-s saves (and reloads the daemon), q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolvedConfigPath()
			if err != nil {
				return err
			}
			return tui.Run(path, g.client())
		},
	}
}
