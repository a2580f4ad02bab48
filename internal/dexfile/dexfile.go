// Package dexfile loads DEX files from disk, transparently decompressing
// them, and writes corrected buffers back out.
package dexfile

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/logger"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

// Options control how files are decoded and encoded
type Options struct {
	ByteOrder binary.ByteOrder
	Level     compressionutil.Level
}

// File is a loaded DEX buffer together with where it came from
type File struct {
	*dex.Dex
	Path        string
	Compression compressionutil.Format
}

// CorrectResult describes the outcome of Correct
type CorrectResult struct {
	Input     string
	Output    string
	Corrected bool // the stored checksum was rewritten
	Written   bool // the buffer was saved to Output
}

func (o Options) dexOptions() []dex.Option {
	if o.ByteOrder == nil {
		return nil
	}
	return []dex.Option{dex.WithByteOrder(o.ByteOrder)}
}

// Load reads path, decompresses it when it carries a known compression
// header or extension, and wraps the result.
func Load(path string, opts Options) (*File, error) {
	if path == "" {
		return nil, errors.ErrEmptyInputPath
	}

	data, format, err := compressionutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d, err := dex.FromBytes(data, opts.dexOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.LogDebug("Loaded dex file", map[string]interface{}{
		"path":        path,
		"size":        d.Len(),
		"compression": string(format),
		"byte_order":  dex.ByteOrderName(d.ByteOrder()),
	})

	return &File{Dex: d, Path: path, Compression: format}, nil
}

// OutputFormat picks the compression for writing f to path. Writing back to
// the source path keeps the source compression; any other path is encoded
// according to its extension.
func (f *File) OutputFormat(path string) compressionutil.Format {
	if samePath(path, f.Path) {
		return f.Compression
	}
	return compressionutil.FormatFromExtension(path)
}

// Save writes the buffer to path, compressing it as OutputFormat decides
func (f *File) Save(path string, opts Options) error {
	format := f.OutputFormat(path)
	level := opts.Level
	if level == "" {
		level = compressionutil.LevelDefault
	}

	if err := compressionutil.WriteFile(path, f.Bytes(), format, level, dex.FileMode); err != nil {
		return err
	}

	logger.LogDebug("Wrote dex file", map[string]interface{}{
		"path":        path,
		"compression": string(format),
	})
	return nil
}

// Correct loads input, repairs its checksum and writes it to output. An empty
// output means input is overwritten.
func Correct(input, output string, opts Options) (*CorrectResult, error) {
	f, err := Load(input, opts)
	if err != nil {
		return nil, err
	}
	return f.Correct(output, opts)
}

// Correct repairs the checksum of f in memory and writes the buffer to output,
// or back to f.Path when output is empty. The buffer is written only when the
// checksum changed or output names a different file.
func (f *File) Correct(output string, opts Options) (*CorrectResult, error) {
	if output == "" {
		output = f.Path
	}

	result := &CorrectResult{Input: f.Path, Output: output}
	result.Corrected = f.CorrectChecksum()

	if !result.Corrected && samePath(f.Path, output) {
		logger.LogInfo("Checksum already valid", map[string]interface{}{"path": f.Path})
		return result, nil
	}

	if err := f.Save(output, opts); err != nil {
		return result, err
	}
	result.Written = true

	logger.LogInfo("Checksum corrected", map[string]interface{}{
		"input":     f.Path,
		"output":    output,
		"corrected": result.Corrected,
	})
	return result, nil
}

// samePath compares two paths after cleaning them
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
