package compressionutil

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

func newGZIPReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

func newGZIPWriter(w io.Writer, level Level) (io.WriteCloser, error) {
	switch level {
	case LevelFastest:
		return gzip.NewWriterLevel(w, gzip.BestSpeed)
	case LevelBest:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	default:
		return gzip.NewWriterLevel(w, gzip.DefaultCompression)
	}
}
