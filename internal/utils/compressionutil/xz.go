package compressionutil

import (
	"io"

	"github.com/ulikunitz/xz"
)

func newXZReader(r io.Reader) (io.ReadCloser, error) {
	xzReader, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xzReader), nil
}

// xz has no level knob beyond dictionary size; DEX files are small enough
// that the default dictionary always covers them.
func newXZWriter(w io.Writer, _ Level) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}
