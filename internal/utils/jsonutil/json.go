// Package jsonutil encodes values as JSON and selects fields from them with
// dot-notation paths.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

// JSONFormat represents the formatting style for JSON output
type JSONFormat int

const (
	// FormatIndented uses indented JSON
	FormatIndented JSONFormat = iota
	// FormatMinified removes all whitespace
	FormatMinified
)

// JSONOptions provides configuration for JSON operations
type JSONOptions struct {
	Format       JSONFormat
	IndentPrefix string
	IndentSize   int
}

// DefaultJSONOptions provides default settings for JSON formatting
var DefaultJSONOptions = JSONOptions{
	Format:     FormatIndented,
	IndentSize: 2,
}

// Encode writes v to w followed by a newline
func Encode(w io.Writer, v interface{}, options ...JSONOptions) error {
	opts := DefaultJSONOptions
	if len(options) > 0 {
		opts = options[0]
	}

	encoder := json.NewEncoder(w)
	if opts.Format == FormatIndented {
		encoder.SetIndent(opts.IndentPrefix, strings.Repeat(" ", opts.IndentSize))
	}
	return encoder.Encode(v)
}

// ToMap converts v to its generic JSON object form. Numbers are kept as
// json.Number to preserve precision.
func ToMap(v interface{}) (map[string]interface{}, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFormat, err)
	}

	var result map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFormat, err)
	}
	return result, nil
}

// GetValue retrieves a value using a dot-notation path. Numeric segments
// index into arrays, so "digests.0.value" selects the first digest's value.
func GetValue(data map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = data

	for _, key := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// FormatValue renders a selected value for the console: strings and numbers
// verbatim, everything else as compact JSON
func FormatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case nil:
		return "null", nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, v, JSONOptions{Format: FormatMinified}); err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidFormat, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Query converts v to JSON form and returns the value at path, formatted
// with FormatValue
func Query(v interface{}, path string) (string, error) {
	data, err := ToMap(v)
	if err != nil {
		return "", err
	}

	value, ok := GetValue(data, path)
	if !ok {
		return "", fmt.Errorf("%w: no value at %q", errors.ErrInvalidArgument, path)
	}
	return FormatValue(value)
}
