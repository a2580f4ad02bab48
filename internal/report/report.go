// Package report describes the checksum state of a DEX file in a structured,
// machine-readable form.
package report

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/cryptoutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

// Format represents a report encoding
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatXML   Format = "xml"
	FormatPlist Format = "plist"
	FormatCBOR  Format = "cbor"
)

// DigestAlgorithms are the digests every report carries
var DigestAlgorithms = []cryptoutil.HashAlgorithm{cryptoutil.SHA256, cryptoutil.BLAKE2b256}

// Report is the inspection result for one DEX file
type Report struct {
	XMLName          xml.Name `json:"-" yaml:"-" xml:"dex-checksum-report" plist:"-"`
	Path             string   `json:"path" yaml:"path" xml:"path" plist:"path"`
	Size             int      `json:"size" yaml:"size" xml:"size" plist:"size"`
	Compression      string   `json:"compression" yaml:"compression" xml:"compression" plist:"compression"`
	Magic            string   `json:"magic,omitempty" yaml:"magic,omitempty" xml:"magic,omitempty" plist:"magic,omitempty"`
	Version          string   `json:"version,omitempty" yaml:"version,omitempty" xml:"version,omitempty" plist:"version,omitempty"`
	ByteOrder        string   `json:"byte_order" yaml:"byte_order" xml:"byte_order" plist:"byte_order"`
	StoredChecksum   string   `json:"stored_checksum" yaml:"stored_checksum" xml:"stored_checksum" plist:"stored_checksum"`
	ExpectedChecksum string   `json:"expected_checksum" yaml:"expected_checksum" xml:"expected_checksum" plist:"expected_checksum"`
	Valid            bool     `json:"valid" yaml:"valid" xml:"valid" plist:"valid"`
	Digests          []Digest `json:"digests" yaml:"digests" xml:"digests>digest" plist:"digests"`
}

// Digest is one content digest of the decompressed file
type Digest struct {
	Algorithm string `json:"algorithm" yaml:"algorithm" xml:"algorithm,attr" plist:"algorithm"`
	Value     string `json:"value" yaml:"value" xml:",chardata" plist:"value"`
}

// ParseFormat parses a report format name. The empty string selects FormatJSON.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatXML, FormatPlist, FormatCBOR:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedReportFormat, name)
	}
}

// Build inspects d and returns its report. The checksums are rendered as
// 0x-prefixed hex values.
func Build(path string, compression compressionutil.Format, d *dex.Dex) (*Report, error) {
	digests, err := cryptoutil.Digests(d.Bytes(), DigestAlgorithms...)
	if err != nil {
		return nil, err
	}

	stored, expected := d.CurrentChecksum(), d.ExpectChecksum()
	r := &Report{
		Path:             path,
		Size:             d.Len(),
		Compression:      string(compression),
		Magic:            d.Magic(),
		Version:          d.Version(),
		ByteOrder:        dex.ByteOrderName(d.ByteOrder()),
		StoredChecksum:   stored.Hex(),
		ExpectedChecksum: expected.Hex(),
		Valid:            stored == expected,
	}
	for _, algorithm := range DigestAlgorithms {
		r.Digests = append(r.Digests, Digest{Algorithm: string(algorithm), Value: digests[algorithm]})
	}
	return r, nil
}
