// Package compressionutil reads and writes DEX files that are stored inside a
// single-stream compression container (gzip, zstd, xz, bzip2, lz4).
package compressionutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/fsutil"
)

// Format identifies a compression container
type Format string

const (
	FormatNone  Format = "none"
	FormatGzip  Format = "gzip"
	FormatZstd  Format = "zstd"
	FormatXZ    Format = "xz"
	FormatBzip2 Format = "bzip2"
	FormatLZ4   Format = "lz4"
)

// Level selects the speed/ratio tradeoff used when writing
type Level string

const (
	LevelFastest Level = "fastest"
	LevelDefault Level = "default"
	LevelBest    Level = "best"
)

// headerSize is the number of leading bytes needed to recognise every magic number
const headerSize = 6

var magicNumbers = map[Format][]byte{
	FormatGzip:  {0x1F, 0x8B},
	FormatBzip2: {0x42, 0x5A, 0x68},
	FormatXZ:    {0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00},
	FormatZstd:  {0x28, 0xB5, 0x2F, 0xFD},
	FormatLZ4:   {0x04, 0x22, 0x4D, 0x18},
}

var extensions = map[string]Format{
	".gz":   FormatGzip,
	".gzip": FormatGzip,
	".zst":  FormatZstd,
	".zstd": FormatZstd,
	".xz":   FormatXZ,
	".bz2":  FormatBzip2,
	".lz4":  FormatLZ4,
}

type codec struct {
	newReader func(io.Reader) (io.ReadCloser, error)
	newWriter func(io.Writer, Level) (io.WriteCloser, error)
}

var codecs = map[Format]codec{
	FormatGzip:  {newGZIPReader, newGZIPWriter},
	FormatZstd:  {newZSTDReader, newZSTDWriter},
	FormatXZ:    {newXZReader, newXZWriter},
	FormatBzip2: {newBZIP2Reader, newBZIP2Writer},
	FormatLZ4:   {newLZ4Reader, newLZ4Writer},
}

// ParseFormat parses a format name as used in configuration and flags
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" || f == FormatNone {
		return FormatNone, nil
	}
	if _, ok := codecs[f]; !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedCompression, name)
	}
	return f, nil
}

// ParseLevel parses a compression level name. The empty string selects LevelDefault.
func ParseLevel(name string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(name))); l {
	case "":
		return LevelDefault, nil
	case LevelFastest, LevelDefault, LevelBest:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrInvalidCompressionLvl, name)
	}
}

// FormatFromExtension determines the container format from a file name
func FormatFromExtension(path string) Format {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f
	}
	return FormatNone
}

// dexMagic starts every uncompressed DEX file
var dexMagic = []byte("dex\n")

// DetectFormat determines the container format using magic numbers and falls
// back to the file extension. A header that already reads as a DEX file is
// never treated as compressed, whatever its extension.
func DetectFormat(header []byte, path string) Format {
	if bytes.HasPrefix(header, dexMagic) {
		return FormatNone
	}
	for format, magic := range magicNumbers {
		if bytes.HasPrefix(header, magic) {
			return format
		}
	}
	return FormatFromExtension(path)
}

// NewReader wraps r in a decompressor for format. FormatNone passes r through.
func NewReader(format Format, r io.Reader) (io.ReadCloser, error) {
	if format == FormatNone {
		return io.NopCloser(r), nil
	}
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedCompression, format)
	}
	rc, err := c.newReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrDecompressionFailed, format, err)
	}
	return rc, nil
}

// NewWriter wraps w in a compressor for format. Closing the returned writer
// flushes the container trailer but does not close w.
func NewWriter(format Format, w io.Writer, level Level) (io.WriteCloser, error) {
	if format == FormatNone {
		return nopWriteCloser{w}, nil
	}
	c, ok := codecs[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedCompression, format)
	}
	wc, err := c.newWriter(w, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrCompressionFailed, format, err)
	}
	return wc, nil
}

// Decompress returns the decompressed contents of data
func Decompress(format Format, data []byte) ([]byte, error) {
	if format == FormatNone {
		return data, nil
	}
	rc, err := NewReader(format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrDecompressionFailed, format, err)
	}
	return out, nil
}

// Compress returns data encoded in format
func Compress(format Format, data []byte, level Level) ([]byte, error) {
	if format == FormatNone {
		return data, nil
	}
	var buf bytes.Buffer
	wc, err := NewWriter(format, &buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrCompressionFailed, format, err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrCompressionFailed, format, err)
	}
	return buf.Bytes(), nil
}

// ReadFile reads path fully and decompresses it, returning the detected format
func ReadFile(path string) ([]byte, Format, error) {
	raw, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, FormatNone, err
	}

	format := DetectFormat(raw[:min(len(raw), headerSize)], path)
	data, err := Decompress(format, raw)
	if err != nil {
		return nil, format, fmt.Errorf("%s: %w", path, err)
	}
	return data, format, nil
}

// WriteFile compresses data with format and creates or truncates path with the result
func WriteFile(path string, data []byte, format Format, level Level, perm os.FileMode) error {
	encoded, err := Compress(format, data, level)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fsutil.WriteFile(path, encoded, perm)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
