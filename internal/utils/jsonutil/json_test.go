package jsonutil

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
)

type sample struct {
	Name    string   `json:"name"`
	Size    int      `json:"size"`
	Valid   bool     `json:"valid"`
	Digests []digest `json:"digests"`
}

type digest struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

var value = sample{
	Name:    "classes.dex",
	Size:    15,
	Valid:   true,
	Digests: []digest{{"sha256", "abc"}, {"blake2b-256", "def"}},
}

func TestEncode(t *testing.T) {
	var indented, minified bytes.Buffer
	if err := Encode(&indented, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&minified, map[string]int{"a": 1}, JSONOptions{Format: FormatMinified}); err != nil {
		t.Fatal(err)
	}

	if indented.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("indented = %q", indented.String())
	}
	if minified.String() != "{\"a\":1}\n" {
		t.Errorf("minified = %q", minified.String())
	}
}

func TestQuery(t *testing.T) {
	tests := map[string]string{
		"name":            "classes.dex",
		"size":            "15",
		"valid":           "true",
		"digests.1.value": "def",
		"digests.0":       `{"algorithm":"sha256","value":"abc"}`,
	}
	for path, want := range tests {
		got, err := Query(value, path)
		if err != nil {
			t.Errorf("%s: %v", path, err)
			continue
		}
		if got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestQueryMissing(t *testing.T) {
	for _, path := range []string{"missing", "digests.2", "digests.x", "name.inner"} {
		if _, err := Query(value, path); !stderrors.Is(err, errors.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", path, err)
		}
	}
}
