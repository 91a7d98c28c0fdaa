package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version задаётся при сборке: -ldflags "-X main.Version=1.2.3".
var Version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ntpsync %s %s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
