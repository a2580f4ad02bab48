package cmd

import (
	"fmt"
	"runtime"

	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s v%s (%s/%s)\n", config.AppName, Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
