package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=abc123" ./cmd/vdmlio/
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of vdmlio",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vdmlio %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}
