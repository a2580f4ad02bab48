package compressionutil

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

func newBZIP2Reader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

func newBZIP2Writer(w io.Writer, level Level) (io.WriteCloser, error) {
	config := &bzip2.WriterConfig{Level: bzip2.DefaultCompression}
	switch level {
	case LevelFastest:
		config.Level = bzip2.BestSpeed
	case LevelBest:
		config.Level = bzip2.BestCompression
	}
	return bzip2.NewWriter(w, config)
}
