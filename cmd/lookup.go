package cmd

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/cryptoutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/vtutil"
	"github.com/spf13/cobra"
)

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [input]",
		Short: "Looks the DEX file up on VirusTotal by its sha256.",
		Long: `Computes the sha256 of the (decompressed) DEX file and prints the
VirusTotal detection summary for it. Requires virustotal.api_key.

` + inputHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vtConfig := config.Instance.VirusTotal
			client, err := vtutil.NewClient(vtConfig.APIKey,
				vtutil.WithRateLimit(vtConfig.RateLimit),
				vtutil.WithRetrySettings(vtConfig.RetryCount, vtConfig.RetryDelay),
				vtutil.WithCustomHost(vtConfig.Host),
			)
			if err != nil {
				return err
			}

			f, err := loadInput(cmd, args)
			if err != nil {
				return err
			}

			hasher, err := cryptoutil.NewHasher(cryptoutil.SHA256)
			if err != nil {
				return err
			}
			sum, err := hasher.Hash(f.Bytes())
			if err != nil {
				return err
			}

			result, err := client.LookupFileByHash(cmd.Context(), sum)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sha256:    %s\n", sum)
			fmt.Fprintf(out, "name:      %s\n", result.Name)
			fmt.Fprintf(out, "type:      %s\n", result.Type)
			fmt.Fprintf(out, "detection: %s (%s)\n", result.DetectionRatio(), result.ThreatLevel())
			if len(result.Tags) > 0 {
				fmt.Fprintf(out, "tags:      %s\n", strings.Join(result.Tags, ", "))
			}
			fmt.Fprintf(out, "permalink: %s\n", result.Permalink)
			return nil
		},
	}
}
