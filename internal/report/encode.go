package report

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/jsonutil"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
	"howett.net/plist"
)

// Encode writes r to w in the given format
func Encode(w io.Writer, r *Report, format Format) error {
	var err error

	switch format {
	case FormatJSON:
		err = jsonutil.Encode(w, r)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err = encoder.Encode(r); err == nil {
			err = encoder.Close()
		}
	case FormatXML:
		if _, err = io.WriteString(w, xml.Header); err != nil {
			break
		}
		encoder := xml.NewEncoder(w)
		encoder.Indent("", "  ")
		if err = encoder.Encode(r); err == nil {
			_, err = io.WriteString(w, "\n")
		}
	case FormatPlist:
		encoder := plist.NewEncoderForFormat(w, plist.XMLFormat)
		encoder.Indent("\t")
		err = encoder.Encode(r)
	case FormatCBOR:
		err = cbor.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnsupportedReportFormat, format)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrReportEncoding, format, err)
	}
	return nil
}
