package composition

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/dexfile"
	"github.com/deploymenttheory/go-dex-checksum/internal/report"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/fsutil"
)

// StepHandler executes a workflow step against the loaded input and returns
// the values it exposes to later steps
type StepHandler func(r *Runner, f *dexfile.File, step Step) (map[string]interface{}, error)

var stepHandlers = map[string]StepHandler{
	StepCurrentChecksum: handleCurrentChecksumStep,
	StepExpectChecksum:  handleExpectChecksumStep,
	StepCheck:           handleCheckStep,
	StepCorrect:         handleCorrectStep,
	StepInspect:         handleInspectStep,
}

// evaluateCondition renders condition and checks whether it reads as true
func evaluateCondition(condition string, variables map[string]interface{}) (bool, error) {
	result, err := processTemplate(condition, variables)
	if err != nil {
		return false, err
	}

	result = strings.TrimSpace(strings.ToLower(result))
	return result == "true" || result == "yes" || result == "1", nil
}

// stringParam returns a string parameter, or def when it is absent
func stringParam(step Step, key, def string) (string, error) {
	value, ok := step.Parameters[key]
	if !ok || value == nil {
		return def, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: parameter '%s' must be a string", errors.ErrInvalidArgument, key)
	}
	return s, nil
}

// boolParam returns a boolean parameter, or def when it is absent
func boolParam(step Step, key string, def bool) (bool, error) {
	value, ok := step.Parameters[key]
	if !ok || value == nil {
		return def, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: parameter '%s' must be a boolean", errors.ErrInvalidArgument, key)
}

func (r *Runner) printf(format string, args ...interface{}) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}

func checksumResult(c dex.Checksum) map[string]interface{} {
	return map[string]interface{}{
		"checksum": c.String(),
		"hex":      c.Hex(),
	}
}

func handleCurrentChecksumStep(r *Runner, f *dexfile.File, step Step) (map[string]interface{}, error) {
	c := f.CurrentChecksum()
	r.printf("%s: %s\n", step.Name, r.ChecksumFormat.Render(c))
	return checksumResult(c), nil
}

func handleExpectChecksumStep(r *Runner, f *dexfile.File, step Step) (map[string]interface{}, error) {
	c := f.ExpectChecksum()
	r.printf("%s: %s\n", step.Name, r.ChecksumFormat.Render(c))
	return checksumResult(c), nil
}

func handleCheckStep(r *Runner, f *dexfile.File, step Step) (map[string]interface{}, error) {
	failOnMismatch, err := boolParam(step, "fail_on_mismatch", false)
	if err != nil {
		return nil, err
	}

	valid := f.CheckChecksum()
	if valid {
		r.printf("%s: valid\n", step.Name)
	} else {
		r.printf("%s: invalid\n", step.Name)
		if failOnMismatch {
			return nil, fmt.Errorf("%w: %s", errors.ErrChecksumMismatch, f.Path)
		}
	}

	return map[string]interface{}{
		"valid":    valid,
		"stored":   f.CurrentChecksum().Hex(),
		"expected": f.ExpectChecksum().Hex(),
	}, nil
}

// handleCorrectStep repairs the loaded buffer and writes it to output, or back
// to the workflow input, following the correct-checksum write rule
func handleCorrectStep(r *Runner, f *dexfile.File, step Step) (map[string]interface{}, error) {
	output, err := stringParam(step, "output", "")
	if err != nil {
		return nil, err
	}

	result, err := f.Correct(output, r.Files)
	if err != nil {
		return nil, err
	}

	if result.Written {
		r.printf("%s: done.\n", step.Name)
	} else {
		r.printf("%s: nothing to do.\n", step.Name)
	}

	return map[string]interface{}{
		"corrected": result.Corrected,
		"written":   result.Written,
		"output":    result.Output,
	}, nil
}

func handleInspectStep(r *Runner, f *dexfile.File, step Step) (map[string]interface{}, error) {
	name, err := stringParam(step, "format", string(r.ReportFormat))
	if err != nil {
		return nil, err
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	output, err := stringParam(step, "output", "")
	if err != nil {
		return nil, err
	}

	rep, err := report.Build(f.Path, f.Compression, f.Dex)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := report.Encode(&buf, rep, format); err != nil {
		return nil, err
	}

	if output != "" {
		if err := fsutil.WriteFile(output, buf.Bytes(), dex.FileMode); err != nil {
			return nil, err
		}
	} else if r.Out != nil {
		if _, err := r.Out.Write(buf.Bytes()); err != nil {
			return nil, err
		}
	}

	return map[string]interface{}{
		"valid":    rep.Valid,
		"stored":   rep.StoredChecksum,
		"expected": rep.ExpectedChecksum,
		"size":     rep.Size,
	}, nil
}
