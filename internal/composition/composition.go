// Package composition runs a sequence of checksum operations, described in a
// workflow file, against a single DEX file.
package composition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/dexfile"
	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/report"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/fsutil"
	"gopkg.in/yaml.v3"
)

var stepNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Runner executes workflows
type Runner struct {
	Files          dexfile.Options
	ChecksumFormat dex.Format
	ReportFormat   report.Format
	Out            io.Writer
}

// LoadWorkflow loads a workflow from a YAML or JSON file. Keys keep their
// case, so variables are referenced in templates exactly as written.
func LoadWorkflow(filePath string) (*Workflow, error) {
	if !fsutil.FileExists(filePath) {
		return nil, fmt.Errorf("%w: workflow file %s", errors.ErrFileNotFound, filePath)
	}

	data, err := fsutil.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	workflow := &Workflow{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(workflow); err != nil {
		return nil, fmt.Errorf("%w: error parsing workflow %s: %w", errors.ErrConfigParseError, filePath, err)
	}

	if workflow.Variables == nil {
		workflow.Variables = make(map[string]interface{})
	}
	addSystemVariables(workflow, filePath)

	return workflow, nil
}

// addSystemVariables adds variables every workflow can reference
func addSystemVariables(workflow *Workflow, filePath string) {
	if abs, err := filepath.Abs(filePath); err == nil {
		workflow.Variables[VarWorkflowDir] = filepath.Dir(abs)
	}

	if cwd, err := os.Getwd(); err == nil {
		workflow.Variables[VarCurrentDir] = cwd
	}

	workflow.Variables[VarTimestamp] = fmt.Sprintf("%d", time.Now().Unix())
}

// processParameters renders every string parameter of step against variables
func processParameters(step Step, variables map[string]interface{}) (Step, error) {
	processed := make(map[string]interface{}, len(step.Parameters))
	for key, value := range step.Parameters {
		strValue, ok := value.(string)
		if !ok {
			processed[key] = value
			continue
		}

		rendered, err := processTemplate(strValue, variables)
		if err != nil {
			return step, fmt.Errorf("error processing template in parameter %s: %w", key, err)
		}
		processed[key] = rendered
	}
	step.Parameters = processed
	return step, nil
}

// processTemplate processes a single template string. Referencing a variable
// that does not exist is an error.
func processTemplate(templateString string, variables map[string]interface{}) (string, error) {
	if !strings.Contains(templateString, "{{") {
		return templateString, nil
	}

	tmpl, err := template.New("inline").Option("missingkey=error").Parse(templateString)
	if err != nil {
		return "", err
	}

	var buffer bytes.Buffer
	if err := tmpl.Execute(&buffer, variables); err != nil {
		return "", err
	}

	return buffer.String(), nil
}

// ValidateWorkflow validates the workflow structure and parameters
func ValidateWorkflow(workflow *Workflow) []error {
	var errs []error

	if workflow.Name == "" {
		errs = append(errs, fmt.Errorf("%w: workflow name is required", errors.ErrInvalidArgument))
	}

	if workflow.Input == "" {
		errs = append(errs, fmt.Errorf("%w: workflow input is required", errors.ErrInvalidArgument))
	}

	if len(workflow.Steps) == 0 {
		errs = append(errs, fmt.Errorf("%w: workflow must contain at least one step", errors.ErrInvalidArgument))
	}

	taken := make(map[string]bool)
	for _, name := range reservedNames {
		taken[name] = true
	}
	for name := range workflow.Variables {
		taken[name] = true
	}

	seen := make(map[string]bool)
	for i, step := range workflow.Steps {
		prefix := fmt.Sprintf("step %d (%s)", i+1, step.Name)

		switch {
		case step.Name == "":
			errs = append(errs, fmt.Errorf("%w: step %d: name is required", errors.ErrInvalidArgument, i+1))
		case !stepNamePattern.MatchString(step.Name):
			errs = append(errs, fmt.Errorf("%w: %s: name must be letters, digits and underscores", errors.ErrInvalidArgument, prefix))
		case seen[step.Name]:
			errs = append(errs, fmt.Errorf("%w: %s: duplicate name", errors.ErrInvalidArgument, prefix))
		case taken[step.Name]:
			errs = append(errs, fmt.Errorf("%w: %s: name collides with a variable", errors.ErrInvalidArgument, prefix))
		}
		seen[step.Name] = true

		if _, ok := stepHandlers[step.Type]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s: invalid type '%s'", errors.ErrInvalidArgument, prefix, step.Type))
			continue
		}

		for _, err := range validateStepParameters(step) {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}

	return errs
}

// validateStepParameters checks the parameters of a step against its type
func validateStepParameters(step Step) []error {
	var errs []error

	if _, ok := step.Parameters["input"]; ok {
		errs = append(errs, fmt.Errorf("%w: steps operate on the workflow input; 'input' is not a step parameter", errors.ErrInvalidArgument))
	}

	if _, ok := step.Parameters["output"]; ok && step.Type != StepCorrect && step.Type != StepInspect {
		errs = append(errs, fmt.Errorf("%w: '%s' steps take no 'output'", errors.ErrInvalidArgument, step.Type))
	}

	if step.Type == StepInspect {
		if format, ok := step.Parameters["format"].(string); ok {
			if _, err := report.ParseFormat(format); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errs
}

// Execute loads the workflow input once and runs the steps against it in
// order. Each step's results, including skipped=true for steps whose
// condition was false, are stored in the workflow variables under the step
// name before the next step runs.
func (r *Runner) Execute(ctx context.Context, workflow *Workflow) error {
	if errs := ValidateWorkflow(workflow); len(errs) > 0 {
		for _, err := range errs {
			logger.LogError("Workflow validation error", err, nil)
		}
		return fmt.Errorf("workflow validation failed with %d errors: %w", len(errs), errs[0])
	}

	if workflow.Variables == nil {
		workflow.Variables = make(map[string]interface{})
	}

	input, err := processTemplate(workflow.Input, workflow.Variables)
	if err != nil {
		return fmt.Errorf("error processing template in workflow input: %w", err)
	}

	f, err := dexfile.Load(input, r.Files)
	if err != nil {
		return err
	}
	workflow.Variables[VarInput] = input

	logger.LogInfo("Starting workflow execution", map[string]interface{}{
		"workflow": workflow.Name,
		"input":    input,
		"steps":    len(workflow.Steps),
	})

	for i, step := range workflow.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if step.Condition != "" {
			shouldRun, err := evaluateCondition(step.Condition, workflow.Variables)
			if err != nil {
				return fmt.Errorf("error evaluating condition for step '%s': %w", step.Name, err)
			}
			if !shouldRun {
				logger.LogInfo(fmt.Sprintf("Skipping step %d/%d: %s (condition not met)", i+1, len(workflow.Steps), step.Name), nil)
				workflow.Variables[step.Name] = map[string]interface{}{"skipped": true}
				continue
			}
		}

		logger.LogDebug(fmt.Sprintf("Executing step %d/%d: %s", i+1, len(workflow.Steps), step.Name),
			map[string]interface{}{
				"type":        step.Type,
				"description": step.Description,
			})

		rendered, err := processParameters(step, workflow.Variables)
		if err != nil {
			return fmt.Errorf("step '%s': %w", step.Name, err)
		}

		result, err := stepHandlers[step.Type](r, f, rendered)
		if err != nil {
			return fmt.Errorf("error executing step '%s': %w", step.Name, err)
		}
		result["skipped"] = false
		workflow.Variables[step.Name] = result
	}

	logger.LogInfo("Workflow execution completed successfully", map[string]interface{}{
		"workflow": workflow.Name,
	})

	return nil
}
