package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"golang.org/x/term"
)

// stdinMarker names standard input as the source of the input path
const stdinMarker = "-"

// resolveInput returns the input path given on the command line. When arg is
// "-" or empty, the whole of in is read and trimmed to obtain the path.
func resolveInput(arg string, in io.Reader, hint io.Writer) (string, error) {
	if arg != "" && arg != stdinMarker {
		return arg, nil
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) && hint != nil {
		fmt.Fprintln(hint, "Reading the DEX file path from standard input (end with Ctrl-D)...")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("%w: standard input: %w", errors.ErrFileReadError, err)
	}

	path := strings.TrimSpace(string(data))
	if path == "" {
		return "", errors.ErrEmptyInputPath
	}
	return path, nil
}

// inputArg returns the first positional argument, or "" when there is none
func inputArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
