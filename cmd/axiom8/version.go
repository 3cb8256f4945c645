package main

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the axiom8 version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("axiom8 %s\n", Version)
	},
}
