// fsutil/files.go
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

// FileExists checks if a file exists and is not a directory
func FileExists(path string) bool {
	defer lockPath(path)()

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CreateDirIfNotExists creates a directory with standard permissions if it doesn't exist
func CreateDirIfNotExists(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// ReadFile reads an entire file into memory
func ReadFile(path string) ([]byte, error) {
	defer lockPath(path)()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classify(errors.ErrFileReadError, path, err)
	}
	return data, nil
}

// ReadFileHeader reads up to n bytes from the start of a file
func ReadFileHeader(path string, n int) ([]byte, error) {
	defer lockPath(path)()

	file, err := os.Open(path)
	if err != nil {
		return nil, classify(errors.ErrFileReadError, path, err)
	}
	defer file.Close()

	buffer := make([]byte, n)
	bytesRead, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, classify(errors.ErrFileReadError, path, err)
	}

	return buffer[:bytesRead], nil
}

// WriteFile creates or truncates path and writes data to it. Missing parent
// directories are an error.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	defer lockPath(path)()

	if err := os.WriteFile(path, data, perm); err != nil {
		return classify(errors.ErrFileWriteError, path, err)
	}
	return nil
}

// ExpandTilde expands the tilde in paths to the user's home directory
func ExpandTilde(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		if path == "~" {
			return home, nil
		}

		return filepath.Join(home, path[2:]), nil
	}

	return path, nil
}

// classify maps an os error onto the sentinel taxonomy while keeping the cause
func classify(fallback error, path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s: %w", errors.ErrFileNotFound, path, err)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s: %w", errors.ErrPermissionDenied, path, err)
	default:
		return fmt.Errorf("%w: %s: %w", fallback, path, err)
	}
}
