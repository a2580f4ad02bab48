package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/compressionutil"
	rerrors "github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/fxamacker/cbor/v2"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	d, err := dex.FromBytes([]byte("dex\n035\x00\xff\xff\xff\xff\x01\x02\x03"))
	if err != nil {
		t.Fatal(err)
	}
	r, err := Build("classes.dex.gz", compressionutil.FormatGzip, d)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBuild(t *testing.T) {
	r := sampleReport(t)

	if r.Size != 15 || r.Magic != "dex" || r.Version != "035" {
		t.Errorf("header fields wrong: %+v", r)
	}
	if r.StoredChecksum != "0xffffffff" || r.ExpectedChecksum != "0x000d0007" {
		t.Errorf("checksums wrong: stored %s expected %s", r.StoredChecksum, r.ExpectedChecksum)
	}
	if r.Valid {
		t.Error("report marked a corrupted checksum valid")
	}
	if r.Compression != "gzip" || r.ByteOrder != "big" {
		t.Errorf("compression/byte order wrong: %s/%s", r.Compression, r.ByteOrder)
	}
	if len(r.Digests) != len(DigestAlgorithms) {
		t.Fatalf("got %d digests, want %d", len(r.Digests), len(DigestAlgorithms))
	}
	if r.Digests[0].Algorithm != "sha256" || len(r.Digests[0].Value) != 64 {
		t.Errorf("unexpected sha256 digest %+v", r.Digests[0])
	}
}

func TestEncodeTextFormats(t *testing.T) {
	r := sampleReport(t)

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatJSON, []string{`"expected_checksum": "0x000d0007"`, `"valid": false`, `"algorithm": "sha256"`}},
		{FormatYAML, []string{"expected_checksum:", "0x000d0007", "valid: false", "algorithm: blake2b-256"}},
		{FormatXML, []string{"<dex-checksum-report>", "<expected_checksum>0x000d0007</expected_checksum>", `<digest algorithm="sha256">`}},
		{FormatPlist, []string{"<key>expected_checksum</key>", "<string>0x000d0007</string>", "<false/>"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, r, tt.format); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestEncodeCBOR(t *testing.T) {
	r := sampleReport(t)

	var buf bytes.Buffer
	if err := Encode(&buf, r, FormatCBOR); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := cbor.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid CBOR: %v", err)
	}
	if decoded["expected_checksum"] != "0x000d0007" {
		t.Errorf("expected_checksum = %v", decoded["expected_checksum"])
	}
	if _, ok := decoded["XMLName"]; ok {
		t.Error("XMLName leaked into CBOR output")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, "plist": FormatPlist, "cbor": FormatCBOR} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %s, %v; want %s", in, got, err, want)
		}
	}

	if _, err := ParseFormat("toml"); !errors.Is(err, rerrors.ErrUnsupportedReportFormat) {
		t.Errorf("expected ErrUnsupportedReportFormat, got %v", err)
	}
	if err := Encode(&bytes.Buffer{}, &Report{}, "toml"); !errors.Is(err, rerrors.ErrUnsupportedReportFormat) {
		t.Errorf("Encode: expected ErrUnsupportedReportFormat, got %v", err)
	}
}
