//go:build !linux

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newDaemonCmd(_ *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the screenrole daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("the daemon requires X11 on linux (running on %s)", runtime.GOOS)
		},
	}
}
