package cmd

import (
	"fmt"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/dexfile"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/spf13/cobra"
)

const inputHelp = `The input dex file to read, or "-" indicating to read stdin. If omitted, stdin will be used.`

// loadInput resolves the input argument and loads the DEX file it names
func loadInput(cmd *cobra.Command, args []string) (*dexfile.File, error) {
	path, err := resolveInput(inputArg(args), cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	opts, err := fileOptions()
	if err != nil {
		return nil, err
	}
	return dexfile.Load(path, opts)
}

// newChecksumCmd builds a command that prints one checksum of the input
func newChecksumCmd(use, short string, pick func(*dexfile.File) dex.Checksum) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [input]",
		Short: short,
		Long:  short + "\n\n" + inputHelp,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := checksumFormat()
			if err != nil {
				return err
			}

			f, err := loadInput(cmd, args)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), format.Render(pick(f)))
			return nil
		},
	}
}

func newCurrentChecksumCmd() *cobra.Command {
	return newChecksumCmd("current-checksum",
		"Calculates the current checksum from the DEX file's header.",
		func(f *dexfile.File) dex.Checksum { return f.CurrentChecksum() })
}

func newExpectChecksumCmd() *cobra.Command {
	return newChecksumCmd("expect-checksum",
		"Calculates the expected checksum for the DEX file.",
		func(f *dexfile.File) dex.Checksum { return f.ExpectChecksum() })
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [input]",
		Short: "Reports whether the stored checksum matches the expected one.",
		Long: `Prints "valid" or "invalid" and exits non-zero when the checksums differ.

` + inputHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadInput(cmd, args)
			if err != nil {
				return err
			}

			if f.CheckChecksum() {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "invalid")
			return fmt.Errorf("%w: stored %s, expected %s", errors.ErrChecksumMismatch,
				f.CurrentChecksum().Hex(), f.ExpectChecksum().Hex())
		},
	}
}

func newCorrectChecksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correct-checksum [input] [output]",
		Short: "Corrects the checksum in the DEX file header if it does not match the expected checksum.",
		Long: `Corrects the checksum in the DEX file header if it does not match the expected checksum.

` + inputHelp + `
The output file to write. If omitted, overwrites the input file. Compressed
inputs are written back with their original compression; a different output
path is compressed according to its extension.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(inputArg(args), cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			output := ""
			if len(args) > 1 {
				output = args[1]
			}

			opts, err := fileOptions()
			if err != nil {
				return err
			}

			result, err := dexfile.Correct(input, output, opts)
			if err != nil {
				return err
			}

			if result.Written {
				fmt.Fprintln(cmd.OutOrStdout(), "done.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to do.")
			}
			return nil
		},
	}
}
