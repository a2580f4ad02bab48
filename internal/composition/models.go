package composition

// Workflow is a sequence of checksum operations applied to one DEX file,
// read from a YAML or JSON file
type Workflow struct {
	// Name of the workflow (required)
	Name string `yaml:"name"`

	// Optional description of the workflow
	Description string `yaml:"description,omitempty"`

	// Version of the workflow definition
	Version string `yaml:"version,omitempty"`

	// Path of the DEX file every step operates on (required). It may be a
	// template over Variables.
	Input string `yaml:"input"`

	// Ordered list of steps to execute
	Steps []Step `yaml:"steps"`

	// Variables that can be referenced in templates. Each step adds its
	// results under its own name.
	Variables map[string]interface{} `yaml:"variables,omitempty"`
}

// Step represents a single operation on the workflow input
type Step struct {
	// Unique name for the step (required). Must be a template identifier so
	// later steps can refer to {{ .name.field }}.
	Name string `yaml:"name"`

	// Type of operation to perform (required)
	Type string `yaml:"type"`

	// Optional human-readable description of the step
	Description string `yaml:"description,omitempty"`

	// Optional template that must render to true, yes or 1 for the step to run
	Condition string `yaml:"condition,omitempty"`

	// Type specific parameters such as output and format
	Parameters map[string]interface{} `yaml:",inline"`
}

// Step types
const (
	StepCurrentChecksum = "current_checksum"
	StepExpectChecksum  = "expect_checksum"
	StepCheck           = "check"
	StepCorrect         = "correct"
	StepInspect         = "inspect"
)

// System variables set for every workflow
const (
	VarWorkflowDir = "workflow_dir"
	VarCurrentDir  = "current_dir"
	VarTimestamp   = "timestamp"
	VarInput       = "input"
)

// reservedNames may not be used as step names
var reservedNames = []string{VarWorkflowDir, VarCurrentDir, VarTimestamp, VarInput}
