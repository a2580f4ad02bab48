package cmd

import (
	"bytes"
	"fmt"

	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/report"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/fsutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/jsonutil"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var (
		output       string
		reportFormat string
		query        string
	)

	cmd := &cobra.Command{
		Use:   "inspect [input]",
		Short: "Prints a structured report of the DEX file's checksum state.",
		Long: `Prints the size, header magic, stored and expected checksums and content
digests of the DEX file as json, yaml, xml, plist or cbor. --query prints a
single field instead, addressed by its JSON path (for example
"expected_checksum" or "digests.0.value").

` + inputHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.Instance.Report.Format
			if cmd.Flags().Changed("report-format") {
				name = reportFormat
			}
			format, err := report.ParseFormat(name)
			if err != nil {
				return err
			}

			f, err := loadInput(cmd, args)
			if err != nil {
				return err
			}

			rep, err := report.Build(f.Path, f.Compression, f.Dex)
			if err != nil {
				return err
			}

			if query != "" {
				value, err := jsonutil.Query(rep, query)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			var buf bytes.Buffer
			if err := report.Encode(&buf, rep, format); err != nil {
				return err
			}

			if output != "" {
				if err := fsutil.WriteFile(output, buf.Bytes(), dex.FileMode); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", output)
				return nil
			}

			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVarP(&reportFormat, "report-format", "r", "", "report format: json, yaml, xml, plist or cbor")
	cmd.Flags().StringVarP(&query, "query", "q", "", "print only the report field at this dot-notation path")
	return cmd
}
