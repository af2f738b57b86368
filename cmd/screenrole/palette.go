package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/screenrole/internal/palette"
)

func newPaletteCmd(g *globals) *cobra.Command {
	var launcher string
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Pick a daemon action from rofi, fuzzel, wofi or dmenu",
		Long: `Show the daemon's actions in an external launcher and run the chosen
one. Bind this to a key in your window manager for quick blackout and
desktop toggles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := palette.New(launcher)
			if err != nil {
				return err
			}
			out, err := palette.Run(backend, g.client())
			if palette.IsCancelled(err) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&launcher, "launcher", "auto", "launcher to use: auto, rofi, fuzzel, wofi or dmenu")
	return cmd
}
