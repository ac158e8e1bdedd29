package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Populated by goreleaser during build
var version = "latest"

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the snippets version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
