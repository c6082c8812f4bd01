package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the flowpad version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Brand.Sprint("flowpad"), version)
		},
	}
}
