package cmd

import (
	"github.com/deploymenttheory/go-dex-checksum/internal/composition"
	"github.com/deploymenttheory/go-dex-checksum/internal/config"
	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/report"
	"github.com/spf13/cobra"
)

func newWorkflowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <workflow-file>",
		Short: "Runs checksum steps described in a workflow file against one dex file.",
		Long: `Loads the input of a YAML or JSON workflow file once and runs its steps
against that buffer in order. Step types are current_checksum,
expect_checksum, check, correct and inspect. The input and string parameters
are Go templates over the workflow variables and the results of earlier
steps; referencing an unknown name is an error. For example:

  name: repair
  input: "{{ .workflow_dir }}/classes.dex"
  steps:
    - name: verify
      type: check
    - name: fix
      type: correct
      condition: "{{ not .verify.valid }}"
      output: "{{ .workflow_dir }}/fixed.dex"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0])
		},
	}
}

// runWorkflow loads and executes the workflow in file
func runWorkflow(cmd *cobra.Command, file string) error {
	logger.LogInfo("Executing workflow", map[string]interface{}{
		"file": file,
	})

	workflow, err := composition.LoadWorkflow(file)
	if err != nil {
		return err
	}

	opts, err := fileOptions()
	if err != nil {
		return err
	}
	format, err := checksumFormat()
	if err != nil {
		return err
	}
	reportFormat, err := report.ParseFormat(config.Instance.Report.Format)
	if err != nil {
		return err
	}

	runner := &composition.Runner{
		Files:          opts,
		ChecksumFormat: format,
		ReportFormat:   reportFormat,
		Out:            cmd.OutOrStdout(),
	}
	return runner.Execute(cmd.Context(), workflow)
}
