package cmd

import (
	"fmt"

	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the active configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if config.ConfigFile != "" {
				fmt.Fprintf(out, "# loaded from %s\n", config.ConfigFile)
			}

			encoder := yaml.NewEncoder(out)
			encoder.SetIndent(2)
			if err := encoder.Encode(config.Instance.Redacted()); err != nil {
				return err
			}
			return encoder.Close()
		},
	})

	return configCmd
}
