package cmd

import (
	"context"
	"fmt"

	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/dexfile"
	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/compressionutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile      string
	workflowFile string
)

// rootCmd represents the base CLI command
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Inspect and repair the checksum of DEX files",
		Long: `dex-checksum reads the Adler-32 checksum stored in the header of a
Dalvik Executable (DEX) file, recomputes it over the rest of the file and
rewrites the header when the two disagree.

Inputs may be plain or compressed with gzip, zstd, xz, bzip2 or lz4. When the
input argument is "-" or omitted, the path is read from standard input.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: applyFlags,
		RunE: func(cmd *cobra.Command, args []string) error {
			if workflowFile != "" {
				return runWorkflow(cmd, workflowFile)
			}
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is search in standard locations)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "", "Log format: json or human")
	flags.String("byte-order", "", "Byte order used to store the checksum: big or little")
	flags.String("format", "", "Checksum output format: array or hex")

	root.Flags().StringVarP(&workflowFile, "workflow", "w", "", "workflow file to execute")

	root.AddCommand(
		newCurrentChecksumCmd(),
		newExpectChecksumCmd(),
		newCheckCmd(),
		newCorrectChecksumCmd(),
		newInspectCmd(),
		newLookupCmd(),
		newWorkflowCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// applyFlags lets explicitly set CLI flags override the loaded configuration
func applyFlags(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	// A config file named on the command line replaces the one found at startup
	if flags.Changed("config") && cfgFile != "" {
		if err := config.Reload(cfgFile); err != nil {
			return err
		}
	}

	overrideConfig(flags, &config.Instance)
	if err := config.Instance.Validate(); err != nil {
		return err
	}

	if flags.Changed("config") || flags.Changed("debug") || flags.Changed("log-format") {
		if err := logger.InitLogger(logger.LoggerConfig{
			Debug:     config.Instance.Debug,
			LogFormat: config.Instance.LogFormat,
			LogFile:   config.Instance.LogFile,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.LogDebug("Running command", map[string]interface{}{
		"command":     cmd.CommandPath(),
		"args":        args,
		"config_file": config.ConfigFile,
		"byte_order":  config.Instance.Checksum.ByteOrder,
	})
	return nil
}

// overrideConfig copies every changed persistent flag into cfg
func overrideConfig(flags *pflag.FlagSet, cfg *config.AppConfig) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug, _ = flags.GetBool("debug")
		case "log-format":
			cfg.LogFormat = f.Value.String()
		case "byte-order":
			cfg.Checksum.ByteOrder = f.Value.String()
		case "format":
			cfg.Output.Format = f.Value.String()
		}
	})
}

// fileOptions builds the load and save options from the active configuration
func fileOptions() (dexfile.Options, error) {
	order, err := dex.ParseByteOrder(config.Instance.Checksum.ByteOrder)
	if err != nil {
		return dexfile.Options{}, err
	}
	level, err := compressionutil.ParseLevel(config.Instance.Compression.Level)
	if err != nil {
		return dexfile.Options{}, err
	}
	return dexfile.Options{ByteOrder: order, Level: level}, nil
}

// checksumFormat returns the configured console rendering for checksums
func checksumFormat() (dex.Format, error) {
	return dex.ParseFormat(config.Instance.Output.Format)
}
